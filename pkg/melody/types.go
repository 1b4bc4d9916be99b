// Package melody provides the monophonic melody event vocabulary shared by the codec and converters
package melody

import (
	"errors"
	"fmt"
	"strings"
)

// Vocabulary constants
const (
	NoEvent  Event = -2 // No change at this step, the previous note keeps sounding
	NoteOff  Event = -1 // The sounding note stops at this step
	MinPitch       = 0
	MaxPitch       = 128 // Exclusive

	// NumSpecialEvents is the number of sentinel events below zero
	NumSpecialEvents = 2
)

var (
	ErrInvalidEvent = errors.New("invalid melody event")
	ErrInvalidPitch = errors.New("invalid midi pitch")
)

// Event is a single melody step.
// -2 = no event, -1 = note-off, [0, 127] = note-on for that midi pitch.
type Event int

// NoteOn returns the note-on event for pitch
func NoteOn(pitch int) (Event, error) {
	if pitch < MinPitch || pitch >= MaxPitch {
		return NoEvent, fmt.Errorf("%w: %d (want [%d, %d))", ErrInvalidPitch, pitch, MinPitch, MaxPitch)
	}
	return Event(pitch), nil
}

// IsSpecial reports whether e is a sentinel (no event or note-off)
func (e Event) IsSpecial() bool {
	return e < 0
}

// IsNoteOn reports whether e starts a note
func (e Event) IsNoteOn() bool {
	return e >= MinPitch && e < MaxPitch
}

// Pitch returns the midi pitch of a note-on event
func (e Event) Pitch() (int, bool) {
	if !e.IsNoteOn() {
		return 0, false
	}
	return int(e), true
}

// Valid reports whether e belongs to the vocabulary
func (e Event) Valid() bool {
	return e >= -NumSpecialEvents && e < MaxPitch
}

func (e Event) String() string {
	switch {
	case e == NoEvent:
		return "no_event"
	case e == NoteOff:
		return "note_off"
	case e.IsNoteOn():
		return fmt.Sprintf("note_on(%d)", int(e))
	default:
		return fmt.Sprintf("invalid(%d)", int(e))
	}
}

// Sequence is read access to an ordered run of melody events
type Sequence interface {
	Len() int
	At(position int) Event
}

// Melody is a monophonic melody, one event per step
type Melody []Event

// Len returns the number of steps
func (m Melody) Len() int {
	return len(m)
}

// At returns the event at position
func (m Melody) At(position int) Event {
	return m[position]
}

// Validate checks every event belongs to the vocabulary
func (m Melody) Validate() error {
	for i, e := range m {
		if !e.Valid() {
			return fmt.Errorf("%w at step %d: %d", ErrInvalidEvent, i, int(e))
		}
	}
	return nil
}

// Pitches returns the note-on pitches in order
func (m Melody) Pitches() []int {
	pitches := make([]int, 0, len(m))
	for _, e := range m {
		if p, ok := e.Pitch(); ok {
			pitches = append(pitches, p)
		}
	}
	return pitches
}

func (m Melody) String() string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FromInts converts raw event values into a Melody
func FromInts(values []int) (Melody, error) {
	m := make(Melody, len(values))
	for i, v := range values {
		m[i] = Event(v)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Ints returns the raw event values
func (m Melody) Ints() []int {
	values := make([]int, len(m))
	for i, e := range m {
		values[i] = int(e)
	}
	return values
}
