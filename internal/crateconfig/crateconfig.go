// Package crateconfig loads the YAML document that describes a crate's
// event/module layout into an eventbuilder.EventBuilderConfig. The
// correlation core never reads configuration itself; this package is the
// external collaborator that turns a file on disk into that config value.
package crateconfig

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rfoxkendo/mesytec-mvlc/internal/eventbuilder"
)

// ExtractorConfig names how to build a eventbuilder.TimestampExtractor for
// one module. Kind selects the extractor shape; Pattern/MatchChar/Index are
// only consulted for the kinds that use them.
type ExtractorConfig struct {
	// Kind is one of "mesytec-default", "indexed", "scan", or "none".
	Kind string `yaml:"kind"`
	// Pattern is a FilterWidth-character bit-pattern string, required for
	// "indexed" and "scan".
	Pattern string `yaml:"pattern,omitempty"`
	// MatchChar is the capture letter within Pattern; defaults to
	// eventbuilder.DefaultMatchChar when empty.
	MatchChar string `yaml:"matchChar,omitempty"`
	// Index selects the payload word to inspect for "indexed", following
	// the same negative-from-the-end convention as
	// eventbuilder.IndexedTimestampFilterExtractor.
	Index int `yaml:"index,omitempty"`
}

// ModuleConfig is the YAML shape of one eventbuilder.ModuleConfig.
type ModuleConfig struct {
	Extractor  ExtractorConfig `yaml:"extractor"`
	Offset     int32           `yaml:"offset,omitempty"`
	Window     uint32          `yaml:"window,omitempty"`
	Ignored    bool            `yaml:"ignored,omitempty"`
	PrefixSize uint32          `yaml:"prefixSize"`
	HasDynamic bool            `yaml:"hasDynamic"`
}

// EventConfig is the YAML shape of one eventbuilder.EventConfig.
type EventConfig struct {
	Enabled bool           `yaml:"enabled"`
	Modules []ModuleConfig `yaml:"modules"`
}

// CrateConfig is the top-level YAML document describing a whole crate's
// event builder configuration.
type CrateConfig struct {
	OutputCrateIndex int32         `yaml:"outputCrateIndex"`
	Events           []EventConfig `yaml:"events"`
}

// LoadFile reads and parses the crate config at path.
func LoadFile(path string) (eventbuilder.EventBuilderConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return eventbuilder.EventBuilderConfig{}, errors.Wrapf(err, "crateconfig: open %q", path)
	}
	defer f.Close()

	return Load(f)
}

// Load parses a crate config document from r and resolves it into an
// eventbuilder.EventBuilderConfig, including materializing every module's
// TimestampExtractor.
func Load(r io.Reader) (eventbuilder.EventBuilderConfig, error) {
	var doc CrateConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return eventbuilder.EventBuilderConfig{}, errors.Wrap(err, "crateconfig: decode yaml")
	}

	return resolve(doc)
}

func resolve(doc CrateConfig) (eventbuilder.EventBuilderConfig, error) {
	cfg := eventbuilder.EventBuilderConfig{
		OutputCrateIndex: doc.OutputCrateIndex,
		EventConfigs:     make([]eventbuilder.EventConfig, len(doc.Events)),
	}

	for ei, ec := range doc.Events {
		mcs := make([]eventbuilder.ModuleConfig, len(ec.Modules))
		for mi, mc := range ec.Modules {
			extractor, err := resolveExtractor(mc.Extractor)
			if err != nil {
				return eventbuilder.EventBuilderConfig{}, errors.Wrapf(err, "crateconfig: event %d, module %d", ei, mi)
			}

			mcs[mi] = eventbuilder.ModuleConfig{
				TsExtractor: extractor,
				Offset:      mc.Offset,
				Window:      mc.Window,
				Ignored:     mc.Ignored,
				PrefixSize:  mc.PrefixSize,
				HasDynamic:  mc.HasDynamic,
			}
		}

		cfg.EventConfigs[ei] = eventbuilder.EventConfig{
			Enabled:       ec.Enabled,
			ModuleConfigs: mcs,
		}
	}

	if err := cfg.Validate(); err != nil {
		return eventbuilder.EventBuilderConfig{}, errors.Wrap(err, "crateconfig: validate")
	}

	return cfg, nil
}

func resolveExtractor(ec ExtractorConfig) (eventbuilder.TimestampExtractor, error) {
	matchChar := eventbuilder.DefaultMatchChar
	if ec.MatchChar != "" {
		if len(ec.MatchChar) != 1 {
			return nil, errors.Errorf("matchChar must be exactly one character, got %q", ec.MatchChar)
		}
		matchChar = ec.MatchChar[0]
	}

	switch ec.Kind {
	case "", "none":
		return eventbuilder.InvalidTimestampExtractor{}, nil

	case "mesytec-default":
		return eventbuilder.DefaultMesytecExtractor(), nil

	case "indexed":
		filter, err := eventbuilder.ParseFilter(ec.Pattern)
		if err != nil {
			return nil, errors.Wrap(err, "indexed extractor pattern")
		}
		return eventbuilder.NewIndexedTimestampFilterExtractor(filter, ec.Index, matchChar), nil

	case "scan":
		filter, err := eventbuilder.ParseFilter(ec.Pattern)
		if err != nil {
			return nil, errors.Wrap(err, "scan extractor pattern")
		}
		return eventbuilder.NewTimestampFilterExtractor(filter, matchChar), nil

	default:
		return nil, errors.Errorf("unknown extractor kind %q", ec.Kind)
	}
}
