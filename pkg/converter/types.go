// Package converter moves melodies between MIDI files, JSON event lists and codec examples
package converter

import (
	"github.com/james-see/melodycodec/pkg/codec"
)

// Converter handles format conversions through a codec
type Converter struct {
	codec           *codec.Codec
	stepsPerQuarter int
}

// New creates a new Converter with the specified codec
func New(c *codec.Codec) *Converter {
	return &Converter{codec: c, stepsPerQuarter: DefaultStepsPerQuarter}
}

// GetCodec returns the current codec
func (c *Converter) GetCodec() *codec.Codec {
	return c.codec
}

// SetCodec sets the codec used for encoding and decoding
func (c *Converter) SetCodec(cd *codec.Codec) {
	c.codec = cd
}

// SetStepsPerQuarter sets the MIDI quantization grid
func (c *Converter) SetStepsPerQuarter(steps int) {
	if steps > 0 {
		c.stepsPerQuarter = steps
	}
}

func (c *Converter) midiConverter() *MIDIConverter {
	return NewMIDIConverter().WithStepsPerQuarter(c.stepsPerQuarter)
}
