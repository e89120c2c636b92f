// Package eventbuilder implements the windowed, multi-module event
// correlation core of a DAQ readout system: timestamp extraction, 30-bit
// modular clock arithmetic, per-event per-module buffering, and the
// streaming correlation state machine that groups module records firing
// within a configured coincidence window into single output events.
package eventbuilder

import (
	"github.com/sirupsen/logrus"
)

// Callbacks is the output surface an EventBuilder invokes while holding its
// internal lock. Implementations must not call back into the same
// EventBuilder from the callback (it would deadlock) and must not block
// indefinitely (it would stall the producer).
type Callbacks struct {
	// EventData delivers one correlated event: outputCrateIndex identifies
	// the destination crate, eventIndex the event the data belongs to, and
	// moduleData is a slice with exactly one entry per configured module of
	// that event, in module-index order. Any entry may be an empty
	// placeholder.
	EventData func(outputCrateIndex int32, eventIndex int, moduleData []ModuleData)
	// SystemEvent passes an out-of-band system frame straight through.
	SystemEvent func(outputCrateIndex int32, header []uint32)
}

func nopEventData(int32, int, []ModuleData) {}
func nopSystemEvent(int32, []uint32)         {}

func (c Callbacks) withDefaults() Callbacks {
	if c.EventData == nil {
		c.EventData = nopEventData
	}
	if c.SystemEvent == nil {
		c.SystemEvent = nopSystemEvent
	}
	return c
}

// EventBuilder is the correlation engine: it buffers
// per-module data per event index and emits correlated multi-module events
// once enough future data has arrived to be sure no earlier module record
// could still match the oldest pending reference timestamp.
//
// All exported methods are safe for concurrent use by one producer thread
// (RecordModuleData / HandleSystemEvent) and one flush-driving thread
// (Flush).
type EventBuilder struct {
	mu        *TicketMutex
	cfg       EventBuilderConfig
	callbacks Callbacks
	perEvent  []perEventData
	counters  []EventCounters
	log       *logrus.Entry
}

// New validates cfg and constructs an EventBuilder. The only error it can
// return is the fatal, construction-time configuration error (a module with
// no dynamic block and a zero prefix size); it is classified with
// errdefs.ErrInvalidArgument (see config.go).
func New(cfg EventBuilderConfig, callbacks Callbacks) (*EventBuilder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eb := &EventBuilder{
		mu:        NewTicketMutex(),
		cfg:       cfg,
		callbacks: callbacks.withDefaults(),
		perEvent:  make([]perEventData, len(cfg.EventConfigs)),
		counters:  make([]EventCounters, len(cfg.EventConfigs)),
		log:       logrus.WithField("component", "eventbuilder"),
	}

	for ei, ec := range cfg.EventConfigs {
		eb.perEvent[ei] = newPerEventData(len(ec.ModuleConfigs))
		eb.counters[ei] = newEventCounters(len(ec.ModuleConfigs))
	}

	return eb, nil
}

// SetCallbacks atomically replaces the builder's callback set.
func (eb *EventBuilder) SetCallbacks(callbacks Callbacks) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.callbacks = callbacks.withDefaults()
}

// IsEnabledForAnyEvent reports whether at least one configured event has
// correlation enabled. A DAQ runner can use this to skip calling into the
// builder entirely when it is a no-op.
func (eb *EventBuilder) IsEnabledForAnyEvent() bool {
	for _, ec := range eb.cfg.EventConfigs {
		if ec.Enabled {
			return true
		}
	}
	return false
}

func validIndex(eventIndex int, n int) bool {
	return eventIndex >= 0 && eventIndex < n
}

// RecordModuleData records one input record for eventIndex: one ModuleData
// per configured module of that event, in module-index order. It returns
// false if eventIndex is out of range, moduleData does not have exactly one
// entry per configured module, or any input fails the size consistency
// check (declared prefix/dynamic/suffix sizes must add up to len(Data)); in
// all three cases no buffered data is touched, and in the last two the
// event's RecordingFailed counter is incremented.
func (eb *EventBuilder) RecordModuleData(eventIndex int, moduleData []ModuleData) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if !validIndex(eventIndex, len(eb.perEvent)) {
		return false
	}

	ecfg := eb.cfg.EventConfigs[eventIndex]

	if len(moduleData) != len(ecfg.ModuleConfigs) {
		eb.counters[eventIndex].RecordingFailed++
		eb.log.WithFields(logrus.Fields{
			"event_index":  eventIndex,
			"module_count": len(moduleData),
			"expected":     len(ecfg.ModuleConfigs),
		}).Warn("record_module_data: module count mismatch")
		return false
	}

	for _, md := range moduleData {
		if !SizeConsistencyCheck(md) {
			eb.counters[eventIndex].RecordingFailed++
			eb.log.WithFields(logrus.Fields{
				"event_index": eventIndex,
			}).Warn("record_module_data: size consistency check failed")
			return false
		}
	}

	if !ecfg.Enabled {
		eb.callbacks.EventData(eb.cfg.OutputCrateIndex, eventIndex, moduleData)
		ctrs := &eb.counters[eventIndex]
		for mi := range moduleData {
			ctrs.InputHits[mi]++
			ctrs.OutputHits[mi]++
		}
		return true
	}

	eb.recordEnabled(eventIndex, ecfg, moduleData)
	return true
}

// recordEnabled implements the procedure for an enabled event.
func (eb *EventBuilder) recordEnabled(eventIndex int, ecfg EventConfig, moduleData []ModuleData) {
	ed := &eb.perEvent[eventIndex]
	ctrs := &eb.counters[eventIndex]

	// Step 2: extract timestamps, push storages, update per-module
	// input/memory counters.
	for mi, md := range moduleData {
		mc := ecfg.ModuleConfigs[mi]

		rawTs, ok := mc.extractor().Extract(md.Data)

		ctrs.InputHits[mi]++
		if len(md.Data) == 0 {
			ctrs.EmptyInputs[mi]++
		}
		if !mc.Ignored && !ok && len(md.Data) > 0 {
			ctrs.StampFailed[mi]++
			eb.log.WithFields(logrus.Fields{
				"event_index":  eventIndex,
				"module_index": mi,
				"data_size":    len(md.Data),
			}).Trace("record_module_data: failed timestamp extraction")
		}

		var ts *int64
		if ok {
			v := int64(rawTs)
			ts = &v
		}

		ed.pushModule(mi, newModuleStorage(md, ts))

		ctrs.CurrentEvents[mi]++
		ctrs.CurrentMem[mi] += uint64(len(md.Data)) * 4
		if ctrs.CurrentEvents[mi] > ctrs.MaxEvents[mi] {
			ctrs.MaxEvents[mi] = ctrs.CurrentEvents[mi]
		}
		if ctrs.CurrentMem[mi] > ctrs.MaxMem[mi] {
			ctrs.MaxMem[mi] = ctrs.CurrentMem[mi]
		}
	}

	// Step 3: apply per-module offsets to the just-pushed entries.
	for mi, mc := range ecfg.ModuleConfigs {
		q := ed.moduleDatas[mi]
		back := &q[len(q)-1]
		if back.Timestamp != nil {
			adjusted := int64(AddOffset(Ts(*back.Timestamp), mc.Offset))
			back.Timestamp = &adjusted
		}
	}

	// Step 4: the filler timestamp is the first valid stamp among the
	// just-pushed entries, scanning modules in order.
	var fillerTs *int64
	for mi := range ecfg.ModuleConfigs {
		q := ed.moduleDatas[mi]
		if ts := q[len(q)-1].Timestamp; ts != nil && fillerTs == nil {
			fillerTs = ts
		}
	}

	// Step 5: assign the filler to any just-pushed entry that still has no
	// stamp.
	if fillerTs != nil {
		for mi := range ecfg.ModuleConfigs {
			q := ed.moduleDatas[mi]
			back := &q[len(q)-1]
			if back.Timestamp == nil {
				v := *fillerTs
				back.Timestamp = &v
			}
		}
	}

	// Step 6: non-ignored modules' just-pushed stamps become reference
	// candidates.
	for mi, mc := range ecfg.ModuleConfigs {
		if mc.Ignored {
			continue
		}
		q := ed.moduleDatas[mi]
		if ts := q[len(q)-1].Timestamp; ts != nil {
			ed.pushTimestamp(*ts)
		}
	}
}

// checkModuleBuffers reports whether every buffered storage for eventIndex
// has a timestamp, treating an empty queue as vacuously satisfying the check.
func checkModuleBuffers(ed *perEventData) bool {
	for _, q := range ed.moduleDatas {
		for _, ms := range q {
			if !sizeConsistencyCheckStorage(ms) {
				return false
			}
			if ms.Timestamp == nil {
				return false
			}
		}
	}
	return true
}

// HandleSystemEvent passes an out-of-band system frame straight through to
// the system event callback. System events carry no timestamp and are never
// merged with correlated data events.
func (eb *EventBuilder) HandleSystemEvent(header []uint32) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.callbacks.SystemEvent(eb.cfg.OutputCrateIndex, header)
}

// TryFlush attempts to emit exactly one correlated output event for
// eventIndex and reports whether it did. Callers (Flush) loop on this
// until it returns false.
func (eb *EventBuilder) TryFlush(eventIndex int) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return eb.tryFlushLocked(eventIndex)
}

func (eb *EventBuilder) tryFlushLocked(eventIndex int) bool {
	if !validIndex(eventIndex, len(eb.perEvent)) {
		return false
	}

	ed := &eb.perEvent[eventIndex]
	if !checkModuleBuffers(ed) {
		return false
	}

	ecfg := eb.cfg.EventConfigs[eventIndex]
	if !ecfg.Enabled {
		return false
	}
	if len(ed.allTimestamps) == 0 {
		return false
	}

	ctrs := &eb.counters[eventIndex]
	moduleCount := len(ecfg.ModuleConfigs)
	refTs := ed.allTimestamps[0]

	// Future-safety check: every module's newest buffered stamp must be
	// TooNew relative to refTs before we can be sure no more data for refTs
	// is still in flight.
	for mi, mc := range ecfg.ModuleConfigs {
		q := ed.moduleDatas[mi]
		if len(q) == 0 {
			continue
		}
		back := q[len(q)-1]
		match, _ := MatchWindow(Ts(refTs), Ts(*back.Timestamp), mc.window())
		if match != TooNew {
			return false
		}
	}

	// Consume every leading duplicate of refTs.
	ed.popFrontTimestampsEqualTo(refTs)

	// Age purge: drop entries too old to ever match refTs.
	for mi, mc := range ecfg.ModuleConfigs {
		for len(ed.moduleDatas[mi]) > 0 {
			front := ed.moduleDatas[mi][0]
			match, _ := MatchWindow(Ts(refTs), Ts(*front.Timestamp), mc.window())
			if match != TooOld {
				break
			}
			ed.popFrontModule(mi)
			ctrs.DiscardsAge[mi]++
			ctrs.CurrentEvents[mi]--
			ctrs.CurrentMem[mi] -= uint64(len(front.Data)) * 4
		}
	}

	out := make([]ModuleData, moduleCount)

	for mi, mc := range ecfg.ModuleConfigs {
		out[mi] = placeholderStorage(mc).toModuleData()

		if len(ed.moduleDatas[mi]) == 0 {
			continue
		}

		front := ed.moduleDatas[mi][0]
		match, _ := MatchWindow(Ts(refTs), Ts(*front.Timestamp), mc.window())

		switch match {
		case InWindow:
			ed.popFrontModule(mi)
			out[mi] = front.toModuleData()
			ctrs.OutputHits[mi]++
			ctrs.CurrentEvents[mi]--
			ctrs.CurrentMem[mi] -= uint64(len(front.Data)) * 4
		case TooNew:
			// leave in buffer for a later reference timestamp
		}
	}

	eb.callbacks.EventData(eb.cfg.OutputCrateIndex, eventIndex, out)
	return true
}

// ForceFlush drains every buffered module queue for eventIndex, ignoring
// windows and the reference timestamp pool entirely, and returns the number
// of output events flushed. Intended for shutdown/run-end.
func (eb *EventBuilder) ForceFlush(eventIndex int) int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return eb.forceFlushLocked(eventIndex)
}

func (eb *EventBuilder) forceFlushLocked(eventIndex int) int {
	if !validIndex(eventIndex, len(eb.perEvent)) {
		return 0
	}

	ed := &eb.perEvent[eventIndex]
	ctrs := &eb.counters[eventIndex]
	moduleCount := len(ed.moduleDatas)

	flushed := 0
	for {
		haveData := false
		out := make([]ModuleData, moduleCount)

		for mi := 0; mi < moduleCount; mi++ {
			if len(ed.moduleDatas[mi]) == 0 {
				continue
			}
			front := ed.popFrontModule(mi)
			out[mi] = front.toModuleData()
			ctrs.OutputHits[mi]++
			ctrs.CurrentEvents[mi]--
			ctrs.CurrentMem[mi] -= uint64(len(front.Data)) * 4
			haveData = true
		}

		if !haveData {
			break
		}

		eb.callbacks.EventData(eb.cfg.OutputCrateIndex, eventIndex, out)
		flushed++
	}

	return flushed
}

// Flush drains pending correlation state across every configured event
// index. With force false it repeatedly calls TryFlush per event until no
// more events can be emitted; with force true it calls ForceFlush on every
// event, ignoring windows. It returns the total number of output events
// emitted.
func (eb *EventBuilder) Flush(force bool) int {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	flushed := 0
	if force {
		for ei := range eb.perEvent {
			flushed += eb.forceFlushLocked(ei)
		}
		return flushed
	}

	for ei := range eb.perEvent {
		for eb.tryFlushLocked(ei) {
			flushed++
		}
	}
	return flushed
}

// DebugDump returns a human-readable snapshot of every event's candidate
// timestamp pool and per-module buffer contents, truncated to the first ten
// entries each.
func (eb *EventBuilder) DebugDump() string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	var out string
	for ei, ecfg := range eb.cfg.EventConfigs {
		out += debugDumpEvent(ei, ecfg, &eb.perEvent[ei])
	}
	return out
}

// GetCounters returns a snapshot of every event's counters, safe to read
// after the builder's lock is released.
func (eb *EventBuilder) GetCounters() BuilderCounters {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return BuilderCounters{EventCounters: eb.counters}.clone()
}
