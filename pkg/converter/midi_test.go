package converter

import (
	"bytes"
	"testing"

	"github.com/james-see/melodycodec/pkg/melody"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestMIDIRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		events melody.Melody
	}{
		{"rests and legato", melody.Melody{60, melody.NoEvent, melody.NoteOff, 62, 64, melody.NoteOff}},
		{"repeated pitch", melody.Melody{60, 60, melody.NoteOff}},
		{"single step notes", melody.Melody{72, 74, 76, melody.NoteOff}},
		{"leading silence", melody.Melody{melody.NoEvent, melody.NoEvent, 48, melody.NoteOff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := NewMIDIConverter()

			data, err := mc.GenerateMIDI(tt.events)
			if err != nil {
				t.Fatalf("GenerateMIDI() error = %v", err)
			}
			if string(data[:4]) != "MThd" {
				t.Fatalf("missing MThd header")
			}

			got, err := NewMIDIConverter().ParseMIDI(data)
			if err != nil {
				t.Fatalf("ParseMIDI() error = %v", err)
			}
			if got.String() != tt.events.String() {
				t.Errorf("ParseMIDI() = %v, want %v", got, tt.events)
			}
		})
	}
}

func TestGenerateMIDIRejectsInvalid(t *testing.T) {
	mc := NewMIDIConverter()

	if _, err := mc.GenerateMIDI(nil); err == nil {
		t.Error("GenerateMIDI(nil) should fail")
	}
	if _, err := mc.GenerateMIDI(melody.Melody{200}); err == nil {
		t.Error("GenerateMIDI() should reject invalid events")
	}
}

func TestGenerateMIDIGridFinerThanResolution(t *testing.T) {
	mc := NewMIDIConverter().WithStepsPerQuarter(DefaultTicksPerQuarter + 1)

	if _, err := mc.GenerateMIDI(melody.Melody{60, melody.NoteOff}); err == nil {
		t.Error("GenerateMIDI() should reject a grid with zero ticks per step")
	}

	mc = NewMIDIConverter().WithStepsPerQuarter(DefaultTicksPerQuarter)
	if _, err := mc.GenerateMIDI(melody.Melody{60, melody.NoteOff}); err != nil {
		t.Errorf("GenerateMIDI() on a one tick grid error = %v", err)
	}
}

func TestParseMIDIInvalid(t *testing.T) {
	if _, err := NewMIDIConverter().ParseMIDI([]byte("not midi")); err == nil {
		t.Error("ParseMIDI() should fail on garbage")
	}
}

func TestParseMIDIOverlap(t *testing.T) {
	// Two overlapping notes on separate tracks: 60 over steps 0-4, 64 over steps 2-3
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var a smf.Track
	a.Add(0, midi.NoteOn(0, 60, 100))
	a.Add(480, midi.NoteOff(0, 60))
	a.Close(0)

	var b smf.Track
	b.Add(240, midi.NoteOn(1, 64, 100))
	b.Add(120, midi.NoteOff(1, 64))
	b.Close(0)

	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(b); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := NewMIDIConverter().ParseMIDI(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseMIDI() error = %v", err)
	}

	expected := melody.Melody{60, melody.NoEvent, 64, melody.NoteOff, melody.NoEvent}
	if got.String() != expected.String() {
		t.Errorf("ParseMIDI() = %v, want %v", got, expected)
	}
}

func TestParseMIDITempo(t *testing.T) {
	data, err := NewMIDIConverter().WithTempo(90).GenerateMIDI(melody.Melody{60, melody.NoteOff})
	if err != nil {
		t.Fatalf("GenerateMIDI() error = %v", err)
	}

	mc := NewMIDIConverter()
	if _, err := mc.ParseMIDI(data); err != nil {
		t.Fatalf("ParseMIDI() error = %v", err)
	}
	if mc.Tempo() < 89.9 || mc.Tempo() > 90.1 {
		t.Errorf("Tempo() = %v, want 90", mc.Tempo())
	}
}

func TestStepsPerQuarter(t *testing.T) {
	events := melody.Melody{60, melody.NoEvent, melody.NoteOff}

	data, err := NewMIDIConverter().GenerateMIDI(events)
	if err != nil {
		t.Fatalf("GenerateMIDI() error = %v", err)
	}

	// Sixteenth notes read back on an eighth grid take half the steps
	got, err := NewMIDIConverter().WithStepsPerQuarter(2).ParseMIDI(data)
	if err != nil {
		t.Fatalf("ParseMIDI() error = %v", err)
	}

	expected := melody.Melody{60, melody.NoteOff}
	if got.String() != expected.String() {
		t.Errorf("ParseMIDI() = %v, want %v", got, expected)
	}
}
