package eventbuilder

import (
	"testing"

	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestModuleConfigDefaults(t *testing.T) {
	var mc ModuleConfig
	assert.Check(t, is.Equal(mc.window(), DefaultMatchWindow))

	_, ok := mc.extractor().Extract([]uint32{1, 2, 3})
	assert.Check(t, !ok)
}

func TestModuleConfigExplicitValues(t *testing.T) {
	mc := ModuleConfig{TsExtractor: DefaultMesytecExtractor(), Window: 32}
	assert.Check(t, is.Equal(mc.window(), uint32(32)))

	ts, ok := mc.extractor().Extract([]uint32{0xC0000007})
	assert.Check(t, ok)
	assert.Check(t, is.Equal(ts, Ts(7)))
}

func TestEventBuilderConfigValidateRejectsZeroPrefixWithoutDynamic(t *testing.T) {
	cfg := EventBuilderConfig{
		EventConfigs: []EventConfig{
			{ModuleConfigs: []ModuleConfig{{HasDynamic: false, PrefixSize: 0}}},
		},
	}

	err := cfg.Validate()
	assert.ErrorContains(t, err, "static prefix size must be set")
	assert.Check(t, errdefs.IsInvalidArgument(err))
}

func TestEventBuilderConfigValidateAllowsDynamicWithZeroPrefix(t *testing.T) {
	cfg := EventBuilderConfig{
		EventConfigs: []EventConfig{
			{ModuleConfigs: []ModuleConfig{{HasDynamic: true, PrefixSize: 0}}},
		},
	}

	assert.NilError(t, cfg.Validate())
}
