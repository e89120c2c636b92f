package eventbuilder

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseFilterRejectsWrongWidth(t *testing.T) {
	_, err := ParseFilter("101")
	assert.ErrorContains(t, err, "must be 32 characters")
}

func TestDataFilterMatches(t *testing.T) {
	f := MustParseFilter("11DDDDDDDDDDDDDDDDDDDDDDDDDDDDDD")

	assert.Check(t, f.Matches(0xC0000000))
	assert.Check(t, f.Matches(0xFFFFFFFF))
	assert.Check(t, !f.Matches(0x80000000))
	assert.Check(t, !f.Matches(0x00000000))
}

func TestMakeCacheEntryAndExtract(t *testing.T) {
	f := MustParseFilter("11DDDDDDDDDDDDDDDDDDDDDDDDDDDDDD")
	c := MakeCacheEntry(f, 'D')

	assert.Check(t, is.Equal(c.Shift, uint(0)))
	assert.Check(t, is.Equal(Extract(c, 0xC0000003), uint32(3)))
	assert.Check(t, is.Equal(Extract(c, 0xFFFFFFFF), uint32(0x3FFFFFFF)))
}

func TestMakeCacheEntryMidFieldShift(t *testing.T) {
	// capture bits 8..15 (0-indexed from the LSB), literal elsewhere.
	pattern := "0000000000000000" + "CCCCCCCC" + "00000000"
	f := MustParseFilter(pattern)
	c := MakeCacheEntry(f, 'C')

	assert.Check(t, is.Equal(c.Mask, uint32(0x0000FF00)))
	assert.Check(t, is.Equal(c.Shift, uint(8)))
	assert.Check(t, is.Equal(Extract(c, 0x0000AB00), uint32(0xAB)))
}

func TestPatternRoundTrip(t *testing.T) {
	pattern := "11DDDDDDDDDDDDDDDDDDDDDDDDDDDDDD"
	f := MustParseFilter(pattern)
	assert.Check(t, is.Equal(f.Pattern(), pattern))
}
