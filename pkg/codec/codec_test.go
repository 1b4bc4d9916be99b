package codec

import (
	"fmt"
	"sync"
	"testing"

	"github.com/james-see/melodycodec/pkg/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"min equals max", Config{MinPitch: 60, MaxPitch: 60, NumSpecialEvents: 2}},
		{"min above max", Config{MinPitch: 84, MaxPitch: 48, NumSpecialEvents: 2}},
		{"negative min", Config{MinPitch: -1, MaxPitch: 48, NumSpecialEvents: 2}},
		{"max above 128", Config{MinPitch: 0, MaxPitch: 129, NumSpecialEvents: 2}},
		{"no special events", Config{MinPitch: 48, MaxPitch: 84, NumSpecialEvents: 0}},
		{"more special events than sentinels", Config{MinPitch: 48, MaxPitch: 84, NumSpecialEvents: 3}},
		{"bad transpose key", Config{MinPitch: 48, MaxPitch: 84, NumSpecialEvents: 2, TransposeToKey: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewAcceptsFullRange(t *testing.T) {
	c, err := New(Config{MinPitch: 0, MaxPitch: 128, NumSpecialEvents: 2})
	require.NoError(t, err)
	assert.Equal(t, 130, c.NumClasses())
}

func TestSizes(t *testing.T) {
	c := newDefaultCodec(t)
	assert.Equal(t, 38, c.InputSize())
	assert.Equal(t, 38, c.NumClasses())
	assert.Equal(t, DefaultConfig(), c.Config())
}

func TestScenarios(t *testing.T) {
	c := newDefaultCodec(t)

	tests := []struct {
		name  string
		event melody.Event
		index int
	}{
		{"no event", melody.NoEvent, 0},
		{"note off", melody.NoteOff, 1},
		{"lowest pitch", melody.Event(48), 2},
		{"middle C", melody.Event(60), 14},
		{"highest pitch", melody.Event(83), 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := c.EventToIndex(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.index, index)

			event, err := c.IndexToEvent(tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.event, event)
		})
	}
}

func TestExcludedPitchRejected(t *testing.T) {
	c := newDefaultCodec(t)

	index, err := c.EventToIndex(melody.Event(84))
	assert.ErrorIs(t, err, ErrOutOfRangeEvent)
	assert.Equal(t, 38, index)

	_, err = c.EventToIndex(melody.Event(47))
	assert.ErrorIs(t, err, ErrOutOfRangeEvent)

	_, err = c.IndexToEvent(38)
	assert.ErrorIs(t, err, ErrOutOfRangeIndex)

	_, err = c.IndexToEvent(-1)
	assert.ErrorIs(t, err, ErrOutOfRangeIndex)
}

func TestNonStrictPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = false
	c, err := New(cfg)
	require.NoError(t, err)

	index, err := c.EventToIndex(melody.Event(84))
	require.NoError(t, err)
	assert.Equal(t, 38, index)

	event, err := c.IndexToEvent(38)
	require.NoError(t, err)
	assert.Equal(t, melody.Event(84), event)

	// There is no vector slot for an out-of-window event, even unchecked.
	_, err = c.BuildInputVector(melody.Melody{melody.Event(84)}, 0)
	assert.ErrorIs(t, err, ErrOutOfRangeEvent)

	label, err := c.BuildLabel(melody.Melody{melody.Event(84)}, 0)
	require.NoError(t, err)
	assert.Equal(t, 38, label)
}

func TestBijection(t *testing.T) {
	c := newDefaultCodec(t)
	cfg := c.Config()

	for p := cfg.MinPitch; p < cfg.MaxPitch; p++ {
		index, err := c.EventToIndex(melody.Event(p))
		require.NoError(t, err)
		event, err := c.IndexToEvent(index)
		require.NoError(t, err)
		assert.Equal(t, melody.Event(p), event, "pitch %d", p)
	}

	for i := 0; i < c.NumClasses(); i++ {
		event, err := c.IndexToEvent(i)
		require.NoError(t, err)
		index, err := c.EventToIndex(event)
		require.NoError(t, err)
		assert.Equal(t, i, index)
	}
}

func TestIndexCoverage(t *testing.T) {
	c := newDefaultCodec(t)

	valid := []melody.Event{melody.NoEvent, melody.NoteOff}
	for p := DefaultMinPitch; p < DefaultMaxPitch; p++ {
		valid = append(valid, melody.Event(p))
	}

	seen := make(map[int]bool)
	for _, e := range valid {
		index, err := c.EventToIndex(e)
		require.NoError(t, err)
		assert.False(t, seen[index], "duplicate index %d", index)
		seen[index] = true
	}

	assert.Len(t, seen, c.NumClasses())
	for i := 0; i < c.NumClasses(); i++ {
		assert.True(t, seen[i], "missing index %d", i)
	}
}

func TestBuildInputVector(t *testing.T) {
	c := newDefaultCodec(t)

	input, err := c.BuildInputVector(melody.Melody{melody.Event(60)}, 0)
	require.NoError(t, err)
	require.Len(t, input, 38)

	for i, v := range input {
		if i == 14 {
			assert.Equal(t, 1.0, v)
		} else {
			assert.Equal(t, 0.0, v, "coordinate %d", i)
		}
	}
}

func TestOneHotShape(t *testing.T) {
	c := newDefaultCodec(t)
	events := melody.Melody{melody.NoEvent, melody.NoteOff, melody.Event(48), melody.Event(71), melody.Event(83)}

	for pos := range events {
		input, err := c.BuildInputVector(events, pos)
		require.NoError(t, err)
		require.Len(t, input, c.InputSize())

		ones := 0
		for _, v := range input {
			switch v {
			case 1.0:
				ones++
			case 0.0:
			default:
				t.Fatalf("position %d: unexpected coordinate %v", pos, v)
			}
		}
		assert.Equal(t, 1, ones, "position %d", pos)
	}
}

func TestInputVectorsAreIndependent(t *testing.T) {
	c := newDefaultCodec(t)
	events := melody.Melody{melody.Event(60)}

	a, err := c.BuildInputVector(events, 0)
	require.NoError(t, err)
	a[0] = 5

	b, err := c.BuildInputVector(events, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b[0])
}

func TestLabelAgreesWithIndex(t *testing.T) {
	c := newDefaultCodec(t)
	events := melody.Melody{melody.Event(60), melody.NoEvent, melody.NoteOff, melody.Event(48), melody.Event(83)}

	for pos, e := range events {
		label, err := c.BuildLabel(events, pos)
		require.NoError(t, err)
		index, err := c.EventToIndex(e)
		require.NoError(t, err)
		assert.Equal(t, index, label)
	}
}

func TestPositionOutOfRange(t *testing.T) {
	c := newDefaultCodec(t)
	events := melody.Melody{melody.Event(60)}

	_, err := c.BuildInputVector(events, 1)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	_, err = c.BuildLabel(events, -1)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	_, err = c.BuildLabel(nil, 0)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestOutOfWindowRejectedByBuilders(t *testing.T) {
	tests := []struct {
		name  string
		event melody.Event
		raw   int
	}{
		{"lowest midi pitch", melody.Event(0), -46},
		{"aliases no event", melody.Event(46), 0},
		{"aliases note off", melody.Event(47), 1},
		{"first pitch above window", melody.Event(84), 38},
		{"highest midi pitch", melody.Event(127), 81},
		{"sentinel below vocabulary", melody.Event(-3), -1},
	}

	for _, strict := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.Strict = strict
		c, err := New(cfg)
		require.NoError(t, err)

		for _, tt := range tests {
			events := melody.Melody{tt.event}

			t.Run(fmt.Sprintf("%s strict=%v", tt.name, strict), func(t *testing.T) {
				index, err := c.EventToIndex(tt.event)
				assert.Equal(t, tt.raw, index)
				if strict {
					assert.ErrorIs(t, err, ErrOutOfRangeEvent)
				} else {
					assert.NoError(t, err)
				}

				label, err := c.BuildLabel(events, 0)
				assert.Equal(t, tt.raw, label)
				if strict {
					assert.ErrorIs(t, err, ErrOutOfRangeEvent)
				} else {
					assert.NoError(t, err)
				}

				// No vector slot belongs to these events in either mode
				input, err := c.BuildInputVector(events, 0)
				assert.ErrorIs(t, err, ErrOutOfRangeEvent)
				assert.Nil(t, input)
			})
		}
	}
}

func TestBelowWindowDoesNotAliasSentinels(t *testing.T) {
	c := newDefaultCodec(t)

	for p := 0; p < DefaultMinPitch; p++ {
		_, err := c.EventToIndex(melody.Event(p))
		assert.ErrorIs(t, err, ErrOutOfRangeEvent, "pitch %d", p)
	}
}

func TestDecodeClassIgnoresEvents(t *testing.T) {
	c := newDefaultCodec(t)

	withNil, err := c.DecodeClass(14, nil)
	require.NoError(t, err)
	withEvents, err := c.DecodeClass(14, melody.Melody{melody.NoteOff})
	require.NoError(t, err)

	assert.Equal(t, melody.Event(60), withNil)
	assert.Equal(t, withNil, withEvents)
}

func TestSingleSpecialEvent(t *testing.T) {
	c, err := New(Config{MinPitch: 60, MaxPitch: 62, NumSpecialEvents: 1, Strict: true})
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumClasses())

	index, err := c.EventToIndex(melody.NoteOff)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	event, err := c.IndexToEvent(0)
	require.NoError(t, err)
	assert.Equal(t, melody.NoteOff, event)

	index, err = c.EventToIndex(melody.Event(61))
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	_, err = c.EventToIndex(melody.NoEvent)
	assert.ErrorIs(t, err, ErrOutOfRangeEvent)
}

func TestConcurrentUse(t *testing.T) {
	c := newDefaultCodec(t)
	events := melody.Melody{melody.Event(60), melody.NoteOff, melody.Event(72)}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range events {
				if _, err := c.BuildInputVector(events, pos); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
