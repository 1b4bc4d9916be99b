package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/james-see/melodycodec/pkg/melody"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDI defaults
const (
	DefaultTicksPerQuarter = 480
	DefaultStepsPerQuarter = 4 // 16th note grid
	DefaultTempo           = 120.0
	DefaultVelocity        = 100
)

// MIDIConverter quantizes MIDI files to monophonic melodies and renders them back
type MIDIConverter struct {
	ticksPerQuarter uint16
	stepsPerQuarter int
	tempo           float64
	velocity        uint8
	channel         uint8
}

// NewMIDIConverter creates a new MIDI converter on a 16th note grid
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: DefaultTicksPerQuarter,
		stepsPerQuarter: DefaultStepsPerQuarter,
		tempo:           DefaultTempo,
		velocity:        DefaultVelocity,
	}
}

// WithStepsPerQuarter sets the quantization grid
func (m *MIDIConverter) WithStepsPerQuarter(steps int) *MIDIConverter {
	if steps > 0 {
		m.stepsPerQuarter = steps
	}
	return m
}

// WithTempo sets the tempo written to generated files
func (m *MIDIConverter) WithTempo(bpm float64) *MIDIConverter {
	if bpm > 0 {
		m.tempo = bpm
	}
	return m
}

// Tempo returns the tempo, updated by the last parsed file
func (m *MIDIConverter) Tempo() float64 {
	return m.tempo
}

// ParseMIDIFile reads a MIDI file and extracts a melody
func (m *MIDIConverter) ParseMIDIFile(filename string) (melody.Melody, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data)
}

type note struct {
	start int64
	end   int64
	pitch uint8
}

// ParseMIDI parses MIDI data into a quantized monophonic melody.
// Overlapping notes are cut by the note that starts after them.
func (m *MIDIConverter) ParseMIDI(data []byte) (melody.Melody, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	ticksPerQuarter := m.ticksPerQuarter
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = mt.Resolution()
	}
	ticksPerStep := int64(ticksPerQuarter) / int64(m.stepsPerQuarter)
	if ticksPerStep <= 0 {
		return nil, fmt.Errorf("resolution %d too coarse for %d steps per quarter", ticksPerQuarter, m.stepsPerQuarter)
	}

	var notes []note
	var endTick int64

	for _, track := range s.Tracks {
		var currentTick int64
		// keyed by channel<<8 | key
		sounding := make(map[uint16]int64)

		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 tt tt tt)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					m.tempo = 60000000.0 / float64(microsecondsPerBeat)
				}
				continue
			}

			if len(msg) < 3 || msg[0] == 0xFF {
				continue
			}

			status := msg[0] & 0xF0
			key := uint16(msg[0]&0x0F)<<8 | uint16(msg[1])
			velocity := msg[2]

			switch {
			case status == 0x90 && velocity > 0:
				if start, ok := sounding[key]; ok {
					notes = append(notes, note{start: start, end: currentTick, pitch: msg[1]})
				}
				sounding[key] = currentTick
			case status == 0x80 || (status == 0x90 && velocity == 0):
				if start, ok := sounding[key]; ok {
					notes = append(notes, note{start: start, end: currentTick, pitch: msg[1]})
					delete(sounding, key)
				}
			}
		}

		// Notes left hanging end with the track
		for key, start := range sounding {
			notes = append(notes, note{start: start, end: currentTick, pitch: uint8(key & 0xFF)})
		}

		if currentTick > endTick {
			endTick = currentTick
		}
	}

	return quantize(notes, ticksPerStep, endTick), nil
}

func quantize(notes []note, ticksPerStep, endTick int64) melody.Melody {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].start != notes[j].start {
			return notes[i].start < notes[j].start
		}
		return notes[i].pitch < notes[j].pitch
	})

	steps := func(n note) (int, int) {
		start := int(n.start / ticksPerStep)
		end := int(n.end / ticksPerStep)
		if end <= start {
			end = start + 1
		}
		return start, end
	}

	length := int(endTick / ticksPerStep)
	for _, n := range notes {
		if _, end := steps(n); end+1 > length {
			length = end + 1
		}
	}

	events := make(melody.Melody, length)
	for i := range events {
		events[i] = melody.NoEvent
	}

	for i, n := range notes {
		start, end := steps(n)
		events[start] = melody.Event(n.pitch)

		// A following note that starts first replaces the note-off
		if i+1 < len(notes) && int(notes[i+1].start/ticksPerStep) <= end {
			continue
		}
		events[end] = melody.NoteOff
	}

	return events
}

// GenerateMIDI renders a melody as a single track MIDI file
func (m *MIDIConverter) GenerateMIDI(events melody.Melody) ([]byte, error) {
	if events == nil {
		return nil, errors.New("nil melody")
	}
	if err := events.Validate(); err != nil {
		return nil, err
	}

	ticksPerStep := uint32(m.ticksPerQuarter) / uint32(m.stepsPerQuarter)
	if ticksPerStep == 0 {
		return nil, fmt.Errorf("resolution %d too coarse for %d steps per quarter", m.ticksPerQuarter, m.stepsPerQuarter)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / m.tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// 4/4
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	var currentTick uint32
	sounding := -1

	for i, e := range events {
		if e == melody.NoEvent {
			continue
		}

		stepTick := uint32(i) * ticksPerStep

		if sounding >= 0 {
			track.Add(stepTick-currentTick, midi.NoteOff(m.channel, uint8(sounding)))
			currentTick = stepTick
			sounding = -1
		}

		if pitch, ok := e.Pitch(); ok {
			track.Add(stepTick-currentTick, midi.NoteOn(m.channel, uint8(pitch), m.velocity))
			currentTick = stepTick
			sounding = pitch
		}
	}

	totalTicks := uint32(len(events)) * ticksPerStep
	if sounding >= 0 {
		track.Add(totalTicks-currentTick, midi.NoteOff(m.channel, uint8(sounding)))
		currentTick = totalTicks
	}

	// Pad the track to the melody length
	track.Close(totalTicks - currentTick)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteMIDIFile writes a melody to a MIDI file
func (m *MIDIConverter) WriteMIDIFile(events melody.Melody, filename string) error {
	data, err := m.GenerateMIDI(events)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
