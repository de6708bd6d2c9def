package symbols

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the dataset offers nothing to sequence over.
	ErrConfiguration = errors.New("symbols: configuration error")

	// ErrOutOfRange is returned by Seek for an index outside [0, length).
	ErrOutOfRange = errors.New("symbols: sequence index out of range")

	// ErrDomain means a radius was requested for a non-positive minimum or a
	// negative value. Statistics are corrupt when this happens.
	ErrDomain = errors.New("symbols: radius domain error")

	// ErrNoValues means no feature has a value for any temporal attribute.
	ErrNoValues = errors.New("symbols: no attribute values in dataset")

	// ErrAborted is returned by every operation after a fatal error.
	ErrAborted = errors.New("symbols: visualization aborted")

	// ErrNotLoaded is returned by transitions before Load succeeds.
	ErrNotLoaded = errors.New("symbols: visualization not loaded")
)

// RenderError wraps a failure while rendering one feature.
type RenderError struct {
	FeatureID string
	Key       AttributeKey
	Wrapped   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s at %s: %v", e.FeatureID, e.Key, e.Wrapped)
}

func (e *RenderError) Unwrap() error {
	return e.Wrapped
}

// fatal reports whether err must abort the visualization.
func fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDomain) || errors.Is(err, ErrNoValues)
}
