package codec

import (
	"fmt"

	"github.com/james-see/melodycodec/pkg/melody"
)

// Example is a next-event training example for one melody.
// Inputs[i] encodes step i and Labels[i] is the class of step i+1.
type Example struct {
	Inputs [][]float64 `json:"inputs"`
	Labels []int       `json:"labels"`
}

// Len returns the number of input/label pairs
func (e *Example) Len() int {
	return len(e.Labels)
}

// Encode builds the training example for a whole sequence
func Encode(ed EncoderDecoder, events melody.Sequence) (*Example, error) {
	if events == nil || events.Len() < 2 {
		n := 0
		if events != nil {
			n = events.Len()
		}
		return nil, fmt.Errorf("%w: %d events, need at least 2", ErrSequenceTooShort, n)
	}

	n := events.Len() - 1
	example := &Example{
		Inputs: make([][]float64, n),
		Labels: make([]int, n),
	}

	for i := 0; i < n; i++ {
		input, err := ed.BuildInputVector(events, i)
		if err != nil {
			return nil, fmt.Errorf("failed to encode input: %w", err)
		}
		label, err := ed.BuildLabel(events, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to encode label: %w", err)
		}
		example.Inputs[i] = input
		example.Labels[i] = label
	}

	return example, nil
}

// Indices maps every event of a sequence to its class index
func Indices(ed EncoderDecoder, events melody.Sequence) ([]int, error) {
	if events == nil {
		return []int{}, nil
	}
	indices := make([]int, events.Len())
	for i := range indices {
		index, err := ed.EventToIndex(events.At(i))
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		indices[i] = index
	}
	return indices, nil
}

// DecodeClasses maps predicted class indices back into a melody
func DecodeClasses(ed EncoderDecoder, indices []int, events melody.Sequence) (melody.Melody, error) {
	m := make(melody.Melody, len(indices))
	for i, index := range indices {
		event, err := ed.DecodeClass(index, events)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		m[i] = event
	}
	return m, nil
}
