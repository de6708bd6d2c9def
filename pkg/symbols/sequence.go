package symbols

import "fmt"

// TransitionFunc runs once for every accepted transition with the new index.
type TransitionFunc func(index int) error

// Sequence is the cyclic cursor over the time axis. It is the only place
// the index changes.
type Sequence struct {
	index    int
	length   int
	onChange TransitionFunc
}

// NewSequence starts at index 0. length is fixed for the sequence's life.
func NewSequence(length int, onChange TransitionFunc) (*Sequence, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: sequence length %d", ErrConfiguration, length)
	}
	return &Sequence{length: length, onChange: onChange}, nil
}

func (s *Sequence) Index() int { return s.index }
func (s *Sequence) Len() int { return s.length }

// StepForward advances one period, wrapping from the last to the first.
func (s *Sequence) StepForward() error {
	return s.set((s.index + 1) % s.length)
}

// StepReverse goes back one period, wrapping from the first to the last.
func (s *Sequence) StepReverse() error {
	return s.set((s.index - 1 + s.length) % s.length)
}

// Seek jumps to i. An index outside [0, Len()) is rejected with
// ErrOutOfRange and leaves the state untouched.
func (s *Sequence) Seek(i int) error {
	if i < 0 || i >= s.length {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, s.length)
	}
	return s.set(i)
}

func (s *Sequence) set(i int) error {
	s.index = i
	if s.onChange == nil {
		return nil
	}
	return s.onChange(i)
}
