package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/melodycodec/pkg/codec"
	"github.com/james-see/melodycodec/pkg/melody"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatJSON    Format = "json"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi":
		return FormatMIDI
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}

	return FormatUnknown
}

// ConvertFile converts a melody between a MIDI file and a JSON event list
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}

	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	var outputData []byte

	switch {
	case inputFormat == FormatMIDI && outputFormat == FormatJSON:
		outputData, err = c.MIDIToJSON(data)
	case inputFormat == FormatJSON && outputFormat == FormatMIDI:
		outputData, err = c.JSONToMIDI(data)
	default:
		return fmt.Errorf("unsupported conversion: %s to %s", inputFormat, outputFormat)
	}

	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// MIDIToMelody parses MIDI data into a quantized melody
func (c *Converter) MIDIToMelody(midiData []byte) (melody.Melody, error) {
	return c.midiConverter().ParseMIDI(midiData)
}

// MelodyToMIDI renders a melody as MIDI data
func (c *Converter) MelodyToMIDI(m melody.Melody) ([]byte, error) {
	return c.midiConverter().GenerateMIDI(m)
}

// MIDIToJSON converts MIDI data to a JSON event list
func (c *Converter) MIDIToJSON(midiData []byte) ([]byte, error) {
	m, err := c.MIDIToMelody(midiData)
	if err != nil {
		return nil, err
	}
	return MarshalMelody(m)
}

// JSONToMIDI converts a JSON event list to MIDI data
func (c *Converter) JSONToMIDI(jsonData []byte) ([]byte, error) {
	m, err := UnmarshalMelody(jsonData)
	if err != nil {
		return nil, err
	}
	return c.MelodyToMIDI(m)
}

// EncodeMIDI turns MIDI data into a training example
func (c *Converter) EncodeMIDI(midiData []byte) (*codec.Example, error) {
	if c.codec == nil {
		return nil, errors.New("no codec configured")
	}
	m, err := c.MIDIToMelody(midiData)
	if err != nil {
		return nil, err
	}
	return codec.Encode(c.codec, m)
}

// EncodeData turns MIDI or JSON event data into a training example
func (c *Converter) EncodeData(data []byte) (*codec.Example, error) {
	if c.codec == nil {
		return nil, errors.New("no codec configured")
	}

	switch DetectFormatFromContent(data) {
	case FormatMIDI:
		return c.EncodeMIDI(data)
	case FormatJSON:
		m, err := UnmarshalMelody(data)
		if err != nil {
			return nil, err
		}
		return codec.Encode(c.codec, m)
	default:
		return nil, errors.New("unrecognized input format")
	}
}

// DecodeClasses maps predicted classes to a melody
func (c *Converter) DecodeClasses(classes []int) (melody.Melody, error) {
	if c.codec == nil {
		return nil, errors.New("no codec configured")
	}
	return codec.DecodeClasses(c.codec, classes, nil)
}

// DecodeToMIDI renders predicted classes as MIDI data
func (c *Converter) DecodeToMIDI(classes []int) ([]byte, error) {
	m, err := c.DecodeClasses(classes)
	if err != nil {
		return nil, err
	}
	return c.MelodyToMIDI(m)
}

// MarshalMelody encodes a melody as a JSON array of event values
func MarshalMelody(m melody.Melody) ([]byte, error) {
	return json.MarshalIndent(m.Ints(), "", "  ")
}

// UnmarshalMelody decodes a JSON event list, either a bare array or {"events": [...]}
func UnmarshalMelody(data []byte) (melody.Melody, error) {
	var values []int
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Events []int `json:"events"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse events JSON: %w", err)
		}
		values = wrapped.Events
	} else if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, fmt.Errorf("failed to parse events JSON: %w", err)
	}

	return melody.FromInts(values)
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"midi -> json",
		"json -> midi",
		"midi -> example",
		"json -> example",
		"classes -> midi",
		"classes -> json",
	}
}
