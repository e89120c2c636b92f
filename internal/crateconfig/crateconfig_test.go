package crateconfig

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/rfoxkendo/mesytec-mvlc/internal/eventbuilder"
)

const sampleYAML = `
outputCrateIndex: 3
events:
  - enabled: true
    modules:
      - extractor:
          kind: mesytec-default
        window: 32
        prefixSize: 1
      - extractor:
          kind: indexed
          pattern: "11DDDDDDDDDDDDDDDDDDDDDDDDDDDDDD"
          index: -1
        offset: -5
        prefixSize: 1
  - enabled: false
    modules:
      - hasDynamic: true
`

func TestLoadResolvesExtractorsAndFields(t *testing.T) {
	cfg, err := Load(strings.NewReader(sampleYAML))
	assert.NilError(t, err)

	assert.Check(t, is.Equal(cfg.OutputCrateIndex, int32(3)))
	assert.Check(t, is.Len(cfg.EventConfigs, 2))
	assert.Check(t, cfg.EventConfigs[0].Enabled)
	assert.Check(t, !cfg.EventConfigs[1].Enabled)

	m0 := cfg.EventConfigs[0].ModuleConfigs[0]
	assert.Check(t, is.Equal(m0.Window, uint32(32)))
	ts, ok := m0.TsExtractor.Extract([]uint32{0xC0000099})
	assert.Check(t, ok)
	assert.Check(t, is.Equal(ts, eventbuilder.Ts(0x99)))

	m1 := cfg.EventConfigs[0].ModuleConfigs[1]
	assert.Check(t, is.Equal(m1.Offset, int32(-5)))
}

func TestLoadRejectsUnknownExtractorKind(t *testing.T) {
	doc := `
events:
  - enabled: true
    modules:
      - extractor:
          kind: bogus
        prefixSize: 1
`
	_, err := Load(strings.NewReader(doc))
	assert.ErrorContains(t, err, "unknown extractor kind")
}

func TestLoadRejectsInvalidModuleConfig(t *testing.T) {
	doc := `
events:
  - enabled: true
    modules:
      - hasDynamic: false
        prefixSize: 0
`
	_, err := Load(strings.NewReader(doc))
	assert.ErrorContains(t, err, "static prefix size must be set")
}

func TestLoadRejectsUnknownYAMLFields(t *testing.T) {
	doc := `
outputCrateIndex: 0
bogusField: true
events: []
`
	_, err := Load(strings.NewReader(doc))
	assert.Check(t, err != nil)
	assert.ErrorContains(t, err, "decode yaml")
}
