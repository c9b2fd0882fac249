package state

import (
	"errors"
	"fmt"
)

// Domain errors for state operations.
var (
	// ErrEmptyState indicates an operation needs data but the state is empty.
	ErrEmptyState = errors.New("state: state is empty")

	// ErrIncompatibleSize indicates a vector or matrix dimension mismatch.
	ErrIncompatibleSize = errors.New("state: incompatible size")

	// ErrIncompatibleStates indicates operands differ in joint names or reference frame.
	ErrIncompatibleStates = errors.New("state: incompatible states")
)

func emptyStateError(name string) error {
	return fmt.Errorf("%w: %s", ErrEmptyState, name)
}

func sizeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleSize, fmt.Sprintf(format, args...))
}

func incompatibleError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleStates, fmt.Sprintf(format, args...))
}
