package codec

import "errors"

// Codec errors. Call sites wrap these with the offending value; test with errors.Is.
var (
	ErrConfiguration      = errors.New("invalid codec configuration")
	ErrOutOfRangeEvent    = errors.New("melody event outside the codec pitch window")
	ErrOutOfRangeIndex    = errors.New("class index outside the codec class range")
	ErrPositionOutOfRange = errors.New("position outside the event sequence")
	ErrSequenceTooShort   = errors.New("event sequence too short to encode")
	ErrUnknownPreset      = errors.New("unknown codec preset")
)
