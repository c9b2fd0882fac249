package robot

import (
	"errors"
	"fmt"
)

// ErrInvalidModel indicates a model description that cannot be built.
var ErrInvalidModel = errors.New("robot: invalid model")

// FrameNotFoundError is returned when a frame name is not part of the model.
type FrameNotFoundError struct {
	Frame string
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("robot: frame %q not found", e.Frame)
}

// InverseGeometryNotConvergingError is returned when the inverse geometry
// exhausts its iterations without reaching the tolerance.
type InverseGeometryNotConvergingError struct {
	Iterations int
	Residual   float64
}

func (e *InverseGeometryNotConvergingError) Error() string {
	return fmt.Sprintf("robot: inverse geometry did not converge after %d iterations (residual %.3g)",
		e.Iterations, e.Residual)
}
