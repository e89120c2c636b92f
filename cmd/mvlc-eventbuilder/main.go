// Command mvlc-eventbuilder wires a crate config, an event builder, a
// synthetic mini-daq driver, and a Prometheus metrics endpoint together into
// a runnable demo.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	metrics "github.com/docker/go-metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rfoxkendo/mesytec-mvlc/internal/crateconfig"
	"github.com/rfoxkendo/mesytec-mvlc/internal/eventbuilder"
	"github.com/rfoxkendo/mesytec-mvlc/internal/minidaq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("mvlc-eventbuilder exited with error")
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		interval   time.Duration
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "mvlc-eventbuilder",
		Short: "Run a mesytec-mvlc event builder against a synthetic data source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				configPath: configPath,
				listenAddr: listenAddr,
				interval:   interval,
				logLevel:   logLevel,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "crate.yaml", "path to the crate config YAML document")
	flags.StringVar(&listenAddr, "metrics-addr", ":9469", "address to serve Prometheus metrics on")
	flags.DurationVar(&interval, "interval", 10*time.Millisecond, "synthetic data generation interval")
	flags.StringVar(&logLevel, "log-level", "info", "logrus log level")

	return cmd
}

type runOptions struct {
	configPath string
	listenAddr string
	interval   time.Duration
	logLevel   string
}

func run(ctx context.Context, opts runOptions) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	cfg, err := crateconfig.LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	stats := minidaq.NewStats()
	callbacks := minidaq.NewCallbacks(stats)

	builder, err := eventbuilder.New(cfg, callbacks)
	if err != nil {
		return err
	}

	ns := metrics.NewNamespace("mvlc", "eventbuilder", nil)
	sink := eventbuilder.NewMetricsSink(ns, builder)
	// sink, not ns, is registered: sink.Collect refreshes every gauge from
	// the builder's live counters on each scrape, where ns.Collect alone
	// would only ever report whatever values were last Set.
	prometheus.MustRegister(sink)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: opts.listenAddr, Handler: mux}

	go func() {
		log.WithField("addr", opts.listenAddr).Info("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped unexpectedly")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := minidaq.NewDriver(builder, cfg, opts.interval, time.Now().UnixNano())
	log.Info("starting synthetic driver")
	driver.Run(ctx)

	log.Info("shutting down, force-flushing remaining events")
	builder.Flush(true)
	sink.Refresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	log.Info(builder.DebugDump())
	log.Info(stats.String())

	return nil
}
