package eventbuilder

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestEventCountersCloneIsIndependent(t *testing.T) {
	c := newEventCounters(2)
	c.InputHits[0] = 5

	clone := c.clone()
	clone.InputHits[0] = 99

	assert.Check(t, is.Equal(c.InputHits[0], uint64(5)))
	assert.Check(t, is.Equal(clone.InputHits[0], uint64(99)))
}

func TestBuilderCountersClone(t *testing.T) {
	bc := BuilderCounters{EventCounters: []EventCounters{newEventCounters(1), newEventCounters(1)}}
	bc.EventCounters[0].OutputHits[0] = 3

	clone := bc.clone()
	clone.EventCounters[0].OutputHits[0] = 7

	assert.Check(t, is.Equal(bc.EventCounters[0].OutputHits[0], uint64(3)))
	assert.Check(t, is.Equal(clone.EventCounters[0].OutputHits[0], uint64(7)))
}

func TestDumpCountersFormat(t *testing.T) {
	c := newEventCounters(1)
	c.InputHits[0] = 10
	c.OutputHits[0] = 8
	c.DiscardsAge[0] = 2

	out := dumpCounters(c)
	assert.Check(t, is.Contains(out, "inputHits:          10"))
	assert.Check(t, is.Contains(out, "sumOutputsDiscards: 10"))
}

func TestDebugDumpEventTruncatesToLimit(t *testing.T) {
	ed := newPerEventData(1)
	for i := 0; i < 15; i++ {
		ts := int64(i)
		ed.pushTimestamp(ts)
		ed.pushModule(0, newModuleStorage(ModuleData{Data: []uint32{uint32(i)}, PrefixSize: 1}, &ts))
	}

	ecfg := EventConfig{Enabled: true, ModuleConfigs: []ModuleConfig{{Window: 16}}}
	out := debugDumpEvent(0, ecfg, &ed)

	assert.Check(t, is.Contains(out, "First 10 timestamps of 15"))
	assert.Check(t, is.Contains(out, "bufferedEvents=15"))
}
