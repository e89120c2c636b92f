package eventbuilder

// DefaultMatchChar is the capture letter used by mesytec's own timestamp
// filters unless a config overrides it.
const DefaultMatchChar byte = 'D'

// TimestampExtractor pulls a 30-bit timestamp out of one module's payload
// words. Implementations must be safe for concurrent use by multiple
// EventBuilder instances (they hold no mutable state past construction).
type TimestampExtractor interface {
	Extract(data []uint32) (Ts, bool)
}

// IndexedTimestampFilterExtractor looks at exactly one word of the payload,
// selected by Index (negative indices count from the end, as in
// Python-style slicing), and extracts a timestamp from it if the word
// matches Filter.
type IndexedTimestampFilterExtractor struct {
	Filter DataFilter
	Index  int
	cache  CacheEntry
}

// NewIndexedTimestampFilterExtractor builds an extractor that inspects the
// word at index (relative to the end of data when negative) of a module
// payload.
func NewIndexedTimestampFilterExtractor(filter DataFilter, index int, matchChar byte) IndexedTimestampFilterExtractor {
	return IndexedTimestampFilterExtractor{
		Filter: filter,
		Index:  index,
		cache:  MakeCacheEntry(filter, matchChar),
	}
}

// Extract implements TimestampExtractor.
func (e IndexedTimestampFilterExtractor) Extract(data []uint32) (Ts, bool) {
	size := len(data)
	idx := e.Index
	if idx < 0 {
		idx = size + idx
	}

	if idx < 0 || idx >= size {
		return 0, false
	}

	word := data[idx]
	if !e.Filter.Matches(word) {
		return 0, false
	}

	return Ts(Extract(e.cache, word)), true
}

// TimestampFilterExtractor scans a module payload forward from the first
// word and extracts a timestamp from the first word that matches Filter.
type TimestampFilterExtractor struct {
	Filter DataFilter
	cache  CacheEntry
}

// NewTimestampFilterExtractor builds a forward-scanning extractor.
func NewTimestampFilterExtractor(filter DataFilter, matchChar byte) TimestampFilterExtractor {
	return TimestampFilterExtractor{
		Filter: filter,
		cache:  MakeCacheEntry(filter, matchChar),
	}
}

// Extract implements TimestampExtractor.
func (e TimestampFilterExtractor) Extract(data []uint32) (Ts, bool) {
	for _, word := range data {
		if e.Filter.Matches(word) {
			return Ts(Extract(e.cache, word)), true
		}
	}
	return 0, false
}

// InvalidTimestampExtractor always fails extraction. It is useful as a
// placeholder for modules that are configured but not yet wired to a real
// extractor, and for tests that supply stamps out of band.
type InvalidTimestampExtractor struct{}

// Extract implements TimestampExtractor.
func (InvalidTimestampExtractor) Extract(data []uint32) (Ts, bool) {
	return 0, false
}

// DefaultMesytecExtractor returns the standard mesytec module timestamp
// extractor: a 30-bit, non-extended timestamp taken from the last word of
// the module payload, with the top two bits reserved as a literal "11"
// marker.
func DefaultMesytecExtractor() IndexedTimestampFilterExtractor {
	filter := MustParseFilter("11DDDDDDDDDDDDDDDDDDDDDDDDDDDDDD")
	return NewIndexedTimestampFilterExtractor(filter, -1, DefaultMatchChar)
}
