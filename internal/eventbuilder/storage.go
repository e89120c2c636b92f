package eventbuilder

// ModuleData is a view of one module's payload for a single input record.
// It never owns the backing array: callers (the readout parser) retain it.
type ModuleData struct {
	Data        []uint32
	PrefixSize  uint32
	DynamicSize uint32
	SuffixSize  uint32
	HasDynamic  bool
}

// SizeConsistencyCheck verifies that the prefix, dynamic
// and suffix sizes add up to the payload length, and that a non-empty
// dynamic block implies HasDynamic. It does not require the converse: a
// present-but-empty dynamic block (HasDynamic true, DynamicSize 0) is valid.
func SizeConsistencyCheck(md ModuleData) bool {
	sum := uint64(md.PrefixSize) + uint64(md.DynamicSize) + uint64(md.SuffixSize)
	if sum != uint64(len(md.Data)) {
		return false
	}
	if md.DynamicSize > 0 && !md.HasDynamic {
		return false
	}
	return true
}

// ModuleStorage is an owned copy of one module's payload plus the
// (offset-adjusted) timestamp extracted from it, if any. Timestamp is a
// pointer so "no timestamp yet" can be distinguished from timestamp 0.
type ModuleStorage struct {
	Data        []uint32
	PrefixSize  uint32
	DynamicSize uint32
	SuffixSize  uint32
	HasDynamic  bool
	Timestamp   *int64
}

// newModuleStorage copies md's payload and attaches ts (which may be nil).
func newModuleStorage(md ModuleData, ts *int64) ModuleStorage {
	data := make([]uint32, len(md.Data))
	copy(data, md.Data)

	return ModuleStorage{
		Data:        data,
		PrefixSize:  md.PrefixSize,
		DynamicSize: md.DynamicSize,
		SuffixSize:  md.SuffixSize,
		HasDynamic:  md.HasDynamic,
		Timestamp:   ts,
	}
}

// toModuleData returns a ModuleData view of the storage's owned bytes, for
// handing back to callbacks that expect the flat ModuleData shape.
func (ms ModuleStorage) toModuleData() ModuleData {
	return ModuleData{
		Data:        ms.Data,
		PrefixSize:  ms.PrefixSize,
		DynamicSize: ms.DynamicSize,
		SuffixSize:  ms.SuffixSize,
		HasDynamic:  ms.HasDynamic,
	}
}

// sizeConsistencyCheckStorage applies the same invariant as
// SizeConsistencyCheck to an owned ModuleStorage.
func sizeConsistencyCheckStorage(ms ModuleStorage) bool {
	return SizeConsistencyCheck(ms.toModuleData())
}

// placeholderStorage synthesizes the zero-filled output slot used when a
// module did not contribute data to the current reference timestamp.
func placeholderStorage(mc ModuleConfig) ModuleStorage {
	return ModuleStorage{
		Data:        make([]uint32, mc.PrefixSize),
		PrefixSize:  mc.PrefixSize,
		DynamicSize: 0,
		SuffixSize:  0,
		HasDynamic:  mc.HasDynamic,
		Timestamp:   nil,
	}
}
