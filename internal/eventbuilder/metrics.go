package eventbuilder

import (
	"fmt"

	metrics "github.com/docker/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink exports an EventBuilder's counters as live Prometheus metrics,
// the way daemon/ exports its own runtime counters through go-metrics: one
// Namespace holding a LabeledGauge per counter field,
// labeled by event_index and module_index so a dashboard can break down
// correlation health per module without the builder knowing Prometheus
// exists.
//
// MetricsSink only reads BuilderCounters under the builder's lock; it never
// mutates builder state and has no effect on any correlation behavior.
type MetricsSink struct {
	builder *EventBuilder
	ns      *metrics.Namespace

	inputHits     metrics.LabeledGauge
	outputHits    metrics.LabeledGauge
	emptyInputs   metrics.LabeledGauge
	discardsAge   metrics.LabeledGauge
	stampFailed   metrics.LabeledGauge
	currentEvents metrics.LabeledGauge
	currentMem    metrics.LabeledGauge
	maxEvents     metrics.LabeledGauge
	maxMem        metrics.LabeledGauge

	recordingFailed metrics.LabeledGauge
}

// NewMetricsSink registers one gauge family per EventCounters field under
// ns and returns a sink that refreshes them from builder on every Collect.
// Callers register the returned sink (it implements prometheus.Collector)
// with a prometheus.Registry themselves; registering ns alone would only
// report the values last set by a Refresh call.
func NewMetricsSink(ns *metrics.Namespace, builder *EventBuilder) *MetricsSink {
	s := &MetricsSink{builder: builder, ns: ns}

	s.inputHits = ns.NewLabeledGauge("input_hits", "module records received", metrics.Total, "event_index", "module_index")
	s.outputHits = ns.NewLabeledGauge("output_hits", "module records emitted in a correlated event", metrics.Total, "event_index", "module_index")
	s.emptyInputs = ns.NewLabeledGauge("empty_inputs", "module records with zero payload words", metrics.Total, "event_index", "module_index")
	s.discardsAge = ns.NewLabeledGauge("discards_age", "module records discarded for being too old to ever match", metrics.Total, "event_index", "module_index")
	s.stampFailed = ns.NewLabeledGauge("stamp_failed", "module records whose timestamp extraction failed", metrics.Total, "event_index", "module_index")
	s.currentEvents = ns.NewLabeledGauge("current_buffered_events", "module records currently buffered", metrics.Total, "event_index", "module_index")
	s.currentMem = ns.NewLabeledGauge("current_buffered_bytes", "bytes currently buffered", metrics.Bytes, "event_index", "module_index")
	s.maxEvents = ns.NewLabeledGauge("max_buffered_events", "high-water mark of buffered module records", metrics.Total, "event_index", "module_index")
	s.maxMem = ns.NewLabeledGauge("max_buffered_bytes", "high-water mark of buffered bytes", metrics.Bytes, "event_index", "module_index")
	s.recordingFailed = ns.NewLabeledGauge("recording_failed", "record_module_data calls rejected for bad input", metrics.Total, "event_index")

	return s
}

// Refresh pulls a fresh BuilderCounters snapshot from the builder and sets
// every gauge's current value. It is safe to call from a
// prometheus.Collector's Collect method, or on a timer.
func (s *MetricsSink) Refresh() {
	counters := s.builder.GetCounters()

	for ei, ec := range counters.EventCounters {
		eventLabel := fmt.Sprintf("%d", ei)

		for mi := range ec.InputHits {
			moduleLabel := fmt.Sprintf("%d", mi)
			s.inputHits.WithValues(eventLabel, moduleLabel).Set(float64(ec.InputHits[mi]))
			s.outputHits.WithValues(eventLabel, moduleLabel).Set(float64(ec.OutputHits[mi]))
			s.emptyInputs.WithValues(eventLabel, moduleLabel).Set(float64(ec.EmptyInputs[mi]))
			s.discardsAge.WithValues(eventLabel, moduleLabel).Set(float64(ec.DiscardsAge[mi]))
			s.stampFailed.WithValues(eventLabel, moduleLabel).Set(float64(ec.StampFailed[mi]))
			s.currentEvents.WithValues(eventLabel, moduleLabel).Set(float64(ec.CurrentEvents[mi]))
			s.currentMem.WithValues(eventLabel, moduleLabel).Set(float64(ec.CurrentMem[mi]))
			s.maxEvents.WithValues(eventLabel, moduleLabel).Set(float64(ec.MaxEvents[mi]))
			s.maxMem.WithValues(eventLabel, moduleLabel).Set(float64(ec.MaxMem[mi]))
		}

		s.recordingFailed.WithValues(eventLabel).Set(float64(ec.RecordingFailed))
	}
}

// Describe implements prometheus.Collector by delegating to the underlying
// go-metrics Namespace.
func (s *MetricsSink) Describe(ch chan<- *prometheus.Desc) {
	s.ns.Describe(ch)
}

// Collect implements prometheus.Collector: it refreshes every gauge from
// the builder's current counters, then delegates to the underlying
// go-metrics Namespace's own Collect, mirroring how daemon/ wires its
// Namespace into a prometheus.Registry.
func (s *MetricsSink) Collect(ch chan<- prometheus.Metric) {
	s.Refresh()
	s.ns.Collect(ch)
}
