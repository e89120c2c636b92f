package eventbuilder

import (
	"fmt"
	"strings"
)

// EventCounters tracks per-module input/output/discard/memory counters for
// a single event index, plus the event-wide recording failure count.
type EventCounters struct {
	InputHits      []uint64
	OutputHits     []uint64
	EmptyInputs    []uint64
	DiscardsAge    []uint64
	StampFailed    []uint64
	CurrentEvents  []uint64
	CurrentMem     []uint64
	MaxEvents      []uint64
	MaxMem         []uint64
	RecordingFailed uint64
}

func newEventCounters(moduleCount int) EventCounters {
	return EventCounters{
		InputHits:     make([]uint64, moduleCount),
		OutputHits:    make([]uint64, moduleCount),
		EmptyInputs:   make([]uint64, moduleCount),
		DiscardsAge:   make([]uint64, moduleCount),
		StampFailed:   make([]uint64, moduleCount),
		CurrentEvents: make([]uint64, moduleCount),
		CurrentMem:    make([]uint64, moduleCount),
		MaxEvents:     make([]uint64, moduleCount),
		MaxMem:        make([]uint64, moduleCount),
	}
}

// clone returns a deep copy, used so GetCounters can hand callers a
// snapshot that is safe to read after the builder's lock is released.
func (c EventCounters) clone() EventCounters {
	out := newEventCounters(len(c.InputHits))
	copy(out.InputHits, c.InputHits)
	copy(out.OutputHits, c.OutputHits)
	copy(out.EmptyInputs, c.EmptyInputs)
	copy(out.DiscardsAge, c.DiscardsAge)
	copy(out.StampFailed, c.StampFailed)
	copy(out.CurrentEvents, c.CurrentEvents)
	copy(out.CurrentMem, c.CurrentMem)
	copy(out.MaxEvents, c.MaxEvents)
	copy(out.MaxMem, c.MaxMem)
	out.RecordingFailed = c.RecordingFailed
	return out
}

// BuilderCounters is the full counters snapshot returned by
// EventBuilder.GetCounters, one EventCounters per configured event index.
type BuilderCounters struct {
	EventCounters []EventCounters
}

func (bc BuilderCounters) clone() BuilderCounters {
	out := BuilderCounters{EventCounters: make([]EventCounters, len(bc.EventCounters))}
	for i, ec := range bc.EventCounters {
		out.EventCounters[i] = ec.clone()
	}
	return out
}

func joinUint64(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

// dumpCounters renders one event's counters in the same layout a
// dump_counters routine would, including a redundant sum-of-outputs-and-
// discards line useful for spot-checking input/output conservation by eye.
func dumpCounters(c EventCounters) string {
	sumOutputsDiscards := make([]uint64, len(c.OutputHits))
	for i := range sumOutputsDiscards {
		sumOutputsDiscards[i] = c.OutputHits[i] + c.DiscardsAge[i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "inputHits:          %s\n", joinUint64(c.InputHits))
	fmt.Fprintf(&b, "discardsAge:        %s\n", joinUint64(c.DiscardsAge))
	fmt.Fprintf(&b, "outputHits:         %s\n", joinUint64(c.OutputHits))
	fmt.Fprintf(&b, "sumOutputsDiscards: %s\n", joinUint64(sumOutputsDiscards))
	fmt.Fprintf(&b, "emptyInputs:        %s\n", joinUint64(c.EmptyInputs))
	fmt.Fprintf(&b, "stampFailed:        %s\n", joinUint64(c.StampFailed))
	fmt.Fprintf(&b, "currentEvents:      %s\n", joinUint64(c.CurrentEvents))
	fmt.Fprintf(&b, "maxEvents:          %s\n", joinUint64(c.MaxEvents))
	fmt.Fprintf(&b, "currentMem:         %s\n", joinUint64(c.CurrentMem))
	fmt.Fprintf(&b, "maxMem:             %s\n", joinUint64(c.MaxMem))
	fmt.Fprintf(&b, "recordingFailed:    %d\n", c.RecordingFailed)
	return b.String()
}

const debugDumpStampLimit = 10

// debugDumpEvent renders the diagnostic snapshot for one event: the first
// debugDumpStampLimit candidate reference timestamps, and for each module
// the first debugDumpStampLimit buffered timestamps.
func debugDumpEvent(eventIndex int, ecfg EventConfig, ed *perEventData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event %d:\n", eventIndex)

	n := len(ed.allTimestamps)
	if n > debugDumpStampLimit {
		n = debugDumpStampLimit
	}
	stampStrs := make([]string, n)
	for i := 0; i < n; i++ {
		stampStrs[i] = fmt.Sprintf("%d", ed.allTimestamps[i])
	}
	fmt.Fprintf(&b, "  First %d timestamps of %d: %s\n", n, len(ed.allTimestamps), strings.Join(stampStrs, ", "))

	for mi, queue := range ed.moduleDatas {
		window := DefaultMatchWindow
		if mi < len(ecfg.ModuleConfigs) {
			window = ecfg.ModuleConfigs[mi].window()
		}

		m := len(queue)
		if m > debugDumpStampLimit {
			m = debugDumpStampLimit
		}
		stamps := make([]string, m)
		for i := 0; i < m; i++ {
			if queue[i].Timestamp != nil {
				stamps[i] = fmt.Sprintf("%d", *queue[i].Timestamp)
			} else {
				stamps[i] = "no ts"
			}
		}

		fmt.Fprintf(&b, "  Module %d, bufferedEvents=%d, window=%d, first %d timestamps of %d: %s\n",
			mi, len(queue), window, m, len(queue), strings.Join(stamps, ", "))
	}

	return b.String()
}
