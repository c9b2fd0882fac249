package impedance

import "errors"

// Domain errors for impedance control.
var (
	// ErrDegenerateDirection indicates a basis was requested along a
	// zero-norm direction.
	ErrDegenerateDirection = errors.New("impedance: direction has zero norm")

	// ErrInvalidSpace indicates a computational space that does not fit the
	// operation.
	ErrInvalidSpace = errors.New("impedance: invalid computational space")
)
