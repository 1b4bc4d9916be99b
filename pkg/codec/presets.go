package codec

import (
	"fmt"
	"strings"

	"github.com/james-see/melodycodec/pkg/melody"
)

// Preset names
const (
	PresetBasicRNN = "basic_rnn"
	PresetFull     = "full"
	PresetTD3      = "td3"
)

// Preset is a named codec configuration
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Config      Config `json:"config"`
}

var presets = []Preset{
	{
		Name:        PresetBasicRNN,
		Description: "Basic RNN melody window, C3 to B5",
		Config:      DefaultConfig(),
	},
	{
		Name:        PresetFull,
		Description: "Every midi pitch",
		Config: Config{
			MinPitch:         melody.MinPitch,
			MaxPitch:         melody.MaxPitch,
			NumSpecialEvents: melody.NumSpecialEvents,
			Strict:           true,
		},
	},
	{
		Name:        PresetTD3,
		Description: "Behringer TD-3 bass line range, C1 to C4",
		Config: Config{
			MinPitch:         36,
			MaxPitch:         85,
			NumSpecialEvents: melody.NumSpecialEvents,
			Strict:           true,
		},
	},
}

// Presets returns the built-in presets in a stable order
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by name. Matching ignores case and treats - and _ alike.
func LookupPreset(name string) (Preset, error) {
	key := normalizePresetName(name)
	for _, p := range presets {
		if normalizePresetName(p.Name) == key {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// NewFromPreset creates a codec from a named preset
func NewFromPreset(name string) (*Codec, error) {
	p, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	return New(p.Config)
}

func normalizePresetName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
