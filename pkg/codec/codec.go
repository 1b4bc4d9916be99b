// Package codec maps melody events to the zero-based class indices and
// one-hot vectors a sequence model consumes and produces.
//
// Index layout for a window [MinPitch, MaxPitch) with N special events:
//
//	0 .. N-1              special events in order (no event, note-off)
//	N .. N+window-1       note-on for MinPitch .. MaxPitch-1
package codec

import (
	"fmt"

	"github.com/james-see/melodycodec/pkg/melody"
)

// Default configuration, the basic RNN melody window
const (
	DefaultMinPitch       = 48 // Inclusive
	DefaultMaxPitch       = 84 // Exclusive
	DefaultTransposeToKey = 0  // C major
)

// Config fixes a codec's pitch window and event vocabulary
type Config struct {
	MinPitch         int  `json:"min_pitch"`
	MaxPitch         int  `json:"max_pitch"` // Exclusive
	NumSpecialEvents int  `json:"num_special_events"`
	TransposeToKey   int  `json:"transpose_to_key"` // Key melodies are normalized to upstream, 0 = C
	Strict           bool `json:"strict"`           // Reject out-of-range events and indices
}

// DefaultConfig returns the basic RNN configuration
func DefaultConfig() Config {
	return Config{
		MinPitch:         DefaultMinPitch,
		MaxPitch:         DefaultMaxPitch,
		NumSpecialEvents: melody.NumSpecialEvents,
		TransposeToKey:   DefaultTransposeToKey,
		Strict:           true,
	}
}

// Validate checks the configuration invariants
func (c Config) Validate() error {
	if c.MinPitch < melody.MinPitch || c.MinPitch > melody.MaxPitch {
		return fmt.Errorf("%w: min pitch %d outside [%d, %d]", ErrConfiguration, c.MinPitch, melody.MinPitch, melody.MaxPitch)
	}
	if c.MaxPitch < melody.MinPitch || c.MaxPitch > melody.MaxPitch {
		return fmt.Errorf("%w: max pitch %d outside [%d, %d]", ErrConfiguration, c.MaxPitch, melody.MinPitch, melody.MaxPitch)
	}
	if c.MinPitch >= c.MaxPitch {
		return fmt.Errorf("%w: min pitch %d must be below max pitch %d", ErrConfiguration, c.MinPitch, c.MaxPitch)
	}
	if c.NumSpecialEvents < 1 || c.NumSpecialEvents > melody.NumSpecialEvents {
		return fmt.Errorf("%w: special events %d outside [1, %d]", ErrConfiguration, c.NumSpecialEvents, melody.NumSpecialEvents)
	}
	if c.TransposeToKey < 0 || c.TransposeToKey >= 12 {
		return fmt.Errorf("%w: transpose key %d outside [0, 12)", ErrConfiguration, c.TransposeToKey)
	}
	return nil
}

// NumModelClasses returns the size of the class space
func (c Config) NumModelClasses() int {
	return c.MaxPitch - c.MinPitch + c.NumSpecialEvents
}

// EncoderDecoder converts between melody events and model inputs, labels and classes
type EncoderDecoder interface {
	InputSize() int
	NumClasses() int
	EventToIndex(event melody.Event) (int, error)
	IndexToEvent(index int) (melody.Event, error)
	BuildInputVector(events melody.Sequence, position int) ([]float64, error)
	BuildLabel(events melody.Sequence, position int) (int, error)
	DecodeClass(index int, events melody.Sequence) (melody.Event, error)
}

// Codec is the event-index codec. It is immutable and safe for concurrent use.
type Codec struct {
	cfg        Config
	numClasses int
}

var _ EncoderDecoder = (*Codec)(nil)

// New creates a codec, failing fast on an invalid configuration
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg, numClasses: cfg.NumModelClasses()}, nil
}

// Config returns a copy of the codec configuration
func (c *Codec) Config() Config {
	return c.cfg
}

// InputSize returns the length of input vectors
func (c *Codec) InputSize() int {
	return c.numClasses
}

// NumClasses returns the number of model output classes
func (c *Codec) NumClasses() int {
	return c.numClasses
}

// EventToIndex collapses a melody event into the zero-based class range.
// In non-strict mode the raw arithmetic result is returned unchecked.
func (c *Codec) EventToIndex(event melody.Event) (int, error) {
	index := c.rawIndex(event)
	if c.cfg.Strict && !c.inWindow(event) {
		return index, c.outOfRangeEvent(event)
	}
	return index, nil
}

// IndexToEvent expands a class index into its melody event.
// In non-strict mode the raw arithmetic result is returned unchecked.
func (c *Codec) IndexToEvent(index int) (melody.Event, error) {
	if c.cfg.Strict && !c.inRange(index) {
		return melody.NoEvent, fmt.Errorf("%w: %d (want [0, %d))", ErrOutOfRangeIndex, index, c.numClasses)
	}
	if index < c.cfg.NumSpecialEvents {
		return melody.Event(index - c.cfg.NumSpecialEvents), nil
	}
	return melody.Event(index - c.cfg.NumSpecialEvents + c.cfg.MinPitch), nil
}

// BuildInputVector returns the one-hot input vector for the event at position.
// An event outside the window is always rejected, a vector has no slot for it.
func (c *Codec) BuildInputVector(events melody.Sequence, position int) ([]float64, error) {
	event, err := c.eventAt(events, position)
	if err != nil {
		return nil, err
	}

	if !c.inWindow(event) {
		return nil, fmt.Errorf("position %d: %w", position, c.outOfRangeEvent(event))
	}

	input := make([]float64, c.numClasses)
	input[c.rawIndex(event)] = 1.0
	return input, nil
}

// BuildLabel returns the training target class for the event at position
func (c *Codec) BuildLabel(events melody.Sequence, position int) (int, error) {
	event, err := c.eventAt(events, position)
	if err != nil {
		return 0, err
	}

	label, err := c.EventToIndex(event)
	if err != nil {
		return label, fmt.Errorf("position %d: %w", position, err)
	}
	return label, nil
}

// DecodeClass returns the melody event for a predicted class index.
// The decode is context free, events is not consulted and may be nil.
func (c *Codec) DecodeClass(index int, events melody.Sequence) (melody.Event, error) {
	return c.IndexToEvent(index)
}

func (c *Codec) rawIndex(event melody.Event) int {
	if event < 0 {
		return int(event) + c.cfg.NumSpecialEvents
	}
	return int(event) - c.cfg.MinPitch + c.cfg.NumSpecialEvents
}

// inWindow reports whether event is one of the encoded sentinels or a
// note-on inside [MinPitch, MaxPitch). Pitches just below the window
// compute indices in the sentinel range, so the index alone is not enough.
func (c *Codec) inWindow(event melody.Event) bool {
	if event < 0 {
		return int(event) >= -c.cfg.NumSpecialEvents
	}
	return int(event) >= c.cfg.MinPitch && int(event) < c.cfg.MaxPitch
}

func (c *Codec) inRange(index int) bool {
	return index >= 0 && index < c.numClasses
}

func (c *Codec) outOfRangeEvent(event melody.Event) error {
	return fmt.Errorf("%w: %s (window [%d, %d))", ErrOutOfRangeEvent, event, c.cfg.MinPitch, c.cfg.MaxPitch)
}

func (c *Codec) eventAt(events melody.Sequence, position int) (melody.Event, error) {
	if events == nil {
		return melody.NoEvent, fmt.Errorf("%w: nil sequence", ErrPositionOutOfRange)
	}
	if position < 0 || position >= events.Len() {
		return melody.NoEvent, fmt.Errorf("%w: %d (length %d)", ErrPositionOutOfRange, position, events.Len())
	}
	return events.At(position), nil
}
