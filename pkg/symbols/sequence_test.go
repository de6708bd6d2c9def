package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceWraparound(t *testing.T) {
	var calls []int
	s, err := NewSequence(7, func(i int) error {
		calls = append(calls, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Index())

	require.NoError(t, s.Seek(6))
	require.NoError(t, s.StepForward())
	assert.Equal(t, 0, s.Index())

	require.NoError(t, s.StepReverse())
	assert.Equal(t, 6, s.Index())

	assert.Equal(t, []int{6, 0, 6}, calls, "one pass per transition")
}

func TestSequenceSeekRejection(t *testing.T) {
	calls := 0
	s, err := NewSequence(7, func(int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Seek(3))

	for _, i := range []int{7, -1, 100} {
		assert.ErrorIs(t, s.Seek(i), ErrOutOfRange)
		assert.Equal(t, 3, s.Index())
	}
	assert.Equal(t, 1, calls)
}

func TestSequenceSeekSameIndexRerenders(t *testing.T) {
	calls := 0
	s, err := NewSequence(2, func(int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Seek(1))
	require.NoError(t, s.Seek(1))
	assert.Equal(t, 2, calls)
}

func TestSequenceSingleStep(t *testing.T) {
	s, err := NewSequence(1, nil)
	require.NoError(t, err)
	require.NoError(t, s.StepForward())
	assert.Equal(t, 0, s.Index())
	require.NoError(t, s.StepReverse())
	assert.Equal(t, 0, s.Index())
}

func TestNewSequenceEmpty(t *testing.T) {
	_, err := NewSequence(0, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
