// Package minidaq is a small synthetic data source, translated from
// mesytec-mvlc's own mini-daq smoke-test tool into Go idiom. It exercises a
// full eventbuilder.EventBuilder wiring (config, callbacks, metrics,
// logging) without needing real USB/Ethernet readout hardware, the same
// role the original mini-daq played against the C++ readout parser.
package minidaq

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rfoxkendo/mesytec-mvlc/internal/eventbuilder"
)

// partSizeStats tracks the hit count and min/max/running-sum payload size of
// one module part (prefix, dynamic, or suffix), the Go shape of the
// original's MiniDAQStats::SizeInfo.
type partSizeStats struct {
	hits uint64
	min  uint64
	max  uint64
	sum  uint64
}

func (s *partSizeStats) record(size uint64) {
	if s.hits == 0 || size < s.min {
		s.min = size
	}
	if size > s.max {
		s.max = size
	}
	s.sum += size
	s.hits++
}

func (s *partSizeStats) avg() float64 {
	if s.hits == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.hits)
}

type partKey struct {
	eventIndex  int
	moduleIndex int
}

// Stats accumulates the same hit/size counters the original mini-daq
// callbacks did, guarded by a mutex rather than the original's
// Protected<T> access wrapper.
type Stats struct {
	mu sync.Mutex

	eventHits map[int]uint64

	prefixHits  map[partKey]uint64
	dynamicHits map[partKey]uint64
	suffixHits  map[partKey]uint64

	prefixSizes  map[partKey]*partSizeStats
	dynamicSizes map[partKey]*partSizeStats
	suffixSizes  map[partKey]*partSizeStats
}

// NewStats returns an empty, ready-to-use Stats.
func NewStats() *Stats {
	return &Stats{
		eventHits:    make(map[int]uint64),
		prefixHits:   make(map[partKey]uint64),
		dynamicHits:  make(map[partKey]uint64),
		suffixHits:   make(map[partKey]uint64),
		prefixSizes:  make(map[partKey]*partSizeStats),
		dynamicSizes: make(map[partKey]*partSizeStats),
		suffixSizes:  make(map[partKey]*partSizeStats),
	}
}

func (s *Stats) recordPart(hits map[partKey]uint64, sizes map[partKey]*partSizeStats, key partKey, size int) {
	hits[key]++
	info, ok := sizes[key]
	if !ok {
		info = &partSizeStats{}
		sizes[key] = info
	}
	info.record(uint64(size))
}

// recordEvent folds one correlated event's module data into the
// accumulated statistics, splitting each module's payload into its prefix,
// dynamic and suffix parts the way the original's modulePrefix /
// moduleDynamic / moduleSuffix callbacks did separately per part.
func (s *Stats) recordEvent(eventIndex int, moduleData []eventbuilder.ModuleData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventHits[eventIndex]++

	for mi, md := range moduleData {
		key := partKey{eventIndex: eventIndex, moduleIndex: mi}

		prefix := int(md.PrefixSize)
		dynamic := int(md.DynamicSize)
		suffix := int(md.SuffixSize)

		if prefix > 0 {
			s.recordPart(s.prefixHits, s.prefixSizes, key, prefix)
		}
		if md.HasDynamic {
			s.recordPart(s.dynamicHits, s.dynamicSizes, key, dynamic)
		}
		if suffix > 0 {
			s.recordPart(s.suffixHits, s.suffixSizes, key, suffix)
		}
	}
}

// String renders the accumulated stats the way dump_mini_daq_parser_stats
// rendered MiniDAQStats: one hits line and one sizes line per module part.
func (s *Stats) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder

	fmt.Fprint(&b, "eventHits: ")
	for ei, hits := range s.eventHits {
		fmt.Fprintf(&b, "ei=%d, hits=%d; ", ei, hits)
	}
	fmt.Fprintln(&b)

	dump := func(title string, hits map[partKey]uint64, sizes map[partKey]*partSizeStats) {
		if len(hits) == 0 {
			return
		}
		fmt.Fprintf(&b, "module %s hits: ", title)
		for k, h := range hits {
			fmt.Fprintf(&b, "ei=%d, mi=%d, hits=%d; ", k.eventIndex, k.moduleIndex, h)
		}
		fmt.Fprintln(&b)

		fmt.Fprintf(&b, "module %s sizes: ", title)
		for k, info := range sizes {
			fmt.Fprintf(&b, "ei=%d, mi=%d, min=%d, max=%d, avg=%.2f; ", k.eventIndex, k.moduleIndex, info.min, info.max, info.avg())
		}
		fmt.Fprintln(&b)
	}

	dump("prefix", s.prefixHits, s.prefixSizes)
	dump("dynamic", s.dynamicHits, s.dynamicSizes)
	dump("suffix", s.suffixHits, s.suffixSizes)

	return b.String()
}

// NewCallbacks builds an eventbuilder.Callbacks whose EventData handler
// folds every delivered event into stats, mirroring
// make_mini_daq_callbacks. SystemEvent is left as a no-op: the original
// mini-daq tool never inspected system frames either.
func NewCallbacks(stats *Stats) eventbuilder.Callbacks {
	return eventbuilder.Callbacks{
		EventData: func(_ int32, eventIndex int, moduleData []eventbuilder.ModuleData) {
			stats.recordEvent(eventIndex, moduleData)
		},
	}
}

// mesytecTimestampWord packs a 30-bit timestamp into the last word of a
// synthetic module payload using the same "11" top-bit marker
// eventbuilder.DefaultMesytecExtractor expects.
func mesytecTimestampWord(ts eventbuilder.Ts) uint32 {
	return 0xC0000000 | (uint32(ts) & eventbuilder.TsMax)
}

// Driver feeds synthetic module data into an EventBuilder on a fixed
// interval, standing in for mini-daq's real USB/Ethernet readout loop.
type Driver struct {
	builder  *eventbuilder.EventBuilder
	cfg      eventbuilder.EventBuilderConfig
	interval time.Duration
	rng      *rand.Rand
	clock    eventbuilder.Ts
}

// NewDriver returns a Driver that records one synthetic batch per
// configured enabled event every interval.
func NewDriver(builder *eventbuilder.EventBuilder, cfg eventbuilder.EventBuilderConfig, interval time.Duration, seed int64) *Driver {
	return &Driver{
		builder:  builder,
		cfg:      cfg,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run drives synthetic batches on a ticker until ctx is canceled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *Driver) tick() {
	d.clock = eventbuilder.AddOffset(d.clock, 1+int32(d.rng.Intn(3)))

	for ei, ec := range d.cfg.EventConfigs {
		if !ec.Enabled {
			continue
		}

		batch := make([]eventbuilder.ModuleData, len(ec.ModuleConfigs))
		for mi, mc := range ec.ModuleConfigs {
			batch[mi] = d.synthesizeModule(mc)
		}

		d.builder.RecordModuleData(ei, batch)
	}
}

// synthesizeModule builds a plausible payload for mc: prefix words of
// filler data, an optional short dynamic block, and a trailing timestamp
// word in mesytec format. Modules configured with a non-default extractor
// still get a payload of the right shape; they simply won't stamp from it.
func (d *Driver) synthesizeModule(mc eventbuilder.ModuleConfig) eventbuilder.ModuleData {
	prefix := make([]uint32, mc.PrefixSize)
	for i := range prefix {
		prefix[i] = uint32(d.rng.Intn(1 << 16))
	}

	var dynamic []uint32
	if mc.HasDynamic {
		dynamic = make([]uint32, d.rng.Intn(4))
		for i := range dynamic {
			dynamic[i] = uint32(d.rng.Intn(1 << 16))
		}
	}

	suffix := []uint32{mesytecTimestampWord(d.clock)}

	data := make([]uint32, 0, len(prefix)+len(dynamic)+len(suffix))
	data = append(data, prefix...)
	data = append(data, dynamic...)
	data = append(data, suffix...)

	return eventbuilder.ModuleData{
		Data:        data,
		PrefixSize:  uint32(len(prefix)),
		DynamicSize: uint32(len(dynamic)),
		SuffixSize:  uint32(len(suffix)),
		HasDynamic:  mc.HasDynamic,
	}
}
