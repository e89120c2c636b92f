package eventbuilder

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestPerEventDataTimestampQueue(t *testing.T) {
	ed := newPerEventData(1)
	ed.pushTimestamp(10)
	ed.pushTimestamp(10)
	ed.pushTimestamp(20)

	ed.popFrontTimestampsEqualTo(10)
	assert.Check(t, is.DeepEqual(ed.allTimestamps, []int64{20}))
}

func TestPerEventDataModuleQueue(t *testing.T) {
	ed := newPerEventData(2)
	ts1, ts2 := int64(1), int64(2)

	ed.pushModule(0, newModuleStorage(ModuleData{Data: []uint32{1}, PrefixSize: 1}, &ts1))
	ed.pushModule(0, newModuleStorage(ModuleData{Data: []uint32{2}, PrefixSize: 1}, &ts2))

	assert.Check(t, is.Len(ed.moduleDatas[0], 2))
	assert.Check(t, is.Len(ed.moduleDatas[1], 0))

	front := ed.popFrontModule(0)
	assert.Check(t, is.Equal(*front.Timestamp, ts1))
	assert.Check(t, is.Len(ed.moduleDatas[0], 1))
}
