package eventbuilder

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// ModuleConfig describes one module within an event: how to extract its
// timestamp, the offset and window used to correlate it against a
// reference, and the static layout of its output placeholder slot.
type ModuleConfig struct {
	// TsExtractor pulls a raw timestamp out of the module's payload words.
	// A nil extractor is treated as InvalidTimestampExtractor.
	TsExtractor TimestampExtractor
	// Offset is added (modulo the 30-bit clock) to every timestamp this
	// module yields, correcting for per-module clock skew.
	Offset int32
	// Window is the full width, in timestamp units, of the match window
	// centered on a reference timestamp; the half-width on each side is
	// Window/2.
	Window uint32
	// Ignored excludes this module's timestamps from becoming reference
	// candidates while still buffering and matching its data.
	Ignored bool
	// PrefixSize is the word count of the module's static prefix block,
	// used to size placeholder output slots.
	PrefixSize uint32
	// HasDynamic marks modules whose payload includes a variable-length
	// dynamic block (possibly empty).
	HasDynamic bool
}

func (mc ModuleConfig) extractor() TimestampExtractor {
	if mc.TsExtractor == nil {
		return InvalidTimestampExtractor{}
	}
	return mc.TsExtractor
}

func (mc ModuleConfig) window() uint32 {
	if mc.Window == 0 {
		return DefaultMatchWindow
	}
	return mc.Window
}

// EventConfig is the per-event correlation configuration: whether
// correlation is active at all, and the per-module configs that drive it.
type EventConfig struct {
	// Enabled gates whether RecordModuleData runs the correlation state
	// machine for this event at all. A disabled event is passed straight
	// through to the output callback.
	Enabled bool
	// ModuleConfigs has one entry per module participating in this event,
	// in module-index order.
	ModuleConfigs []ModuleConfig
}

// EventBuilderConfig is the full, language-agnostic configuration an
// EventBuilder is constructed from. It is expected to be produced by an
// external loader (see internal/crateconfig for one implementation); the
// core never reads configuration files itself.
type EventBuilderConfig struct {
	EventConfigs     []EventConfig
	OutputCrateIndex int32
}

// Validate checks the one fatal, construction-time configuration error: a
// module with no dynamic block must declare a non-zero static prefix size,
// otherwise its placeholder output slot would be unrecoverably ambiguous
// (zero bytes, yet claiming fixed layout).
//
// The error is classified with errdefs.ErrInvalidArgument so API-style
// callers can test for it with errdefs.IsInvalidArgument, the same
// convention used elsewhere to map construction/validation failures onto
// HTTP status codes.
func (cfg EventBuilderConfig) Validate() error {
	for ei, ec := range cfg.EventConfigs {
		for mi, mc := range ec.ModuleConfigs {
			if !mc.HasDynamic && mc.PrefixSize == 0 {
				return errdefs.ErrInvalidArgument(fmt.Errorf(
					"event %d, module %d: static prefix size must be set when hasDynamic is false", ei, mi))
			}
		}
	}
	return nil
}
