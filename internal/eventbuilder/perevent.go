package eventbuilder

// perEventData holds the correlation state for a single event index: the
// pool of candidate reference timestamps and one FIFO of buffered module
// data per module.
//
// Both queues are modeled as slices with a trimmed front rather than via
// container/list: the access pattern here is pure FIFO (push back, pop
// front, occasionally peek front/back), so a slice with an index that
// advances on pop avoids per-node allocation without needing a ring buffer.
type perEventData struct {
	allTimestamps []int64
	moduleDatas   [][]ModuleStorage
}

func newPerEventData(moduleCount int) perEventData {
	return perEventData{
		allTimestamps: nil,
		moduleDatas:   make([][]ModuleStorage, moduleCount),
	}
}

func (ed *perEventData) pushTimestamp(ts int64) {
	ed.allTimestamps = append(ed.allTimestamps, ts)
}

func (ed *perEventData) popFrontTimestampsEqualTo(ref int64) {
	i := 0
	for i < len(ed.allTimestamps) && ed.allTimestamps[i] == ref {
		i++
	}
	ed.allTimestamps = ed.allTimestamps[i:]
}

func (ed *perEventData) pushModule(mi int, ms ModuleStorage) {
	ed.moduleDatas[mi] = append(ed.moduleDatas[mi], ms)
}

// popFrontModule removes and returns the oldest buffered entry for module
// mi. Callers must check len(moduleDatas[mi]) > 0 first.
func (ed *perEventData) popFrontModule(mi int) ModuleStorage {
	q := ed.moduleDatas[mi]
	front := q[0]
	ed.moduleDatas[mi] = q[1:]
	return front
}
