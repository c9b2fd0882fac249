package impedance

import (
	"fmt"
	"strings"
)

// ComputationalSpace selects the velocity components that shape the damping.
type ComputationalSpace int

const (
	Linear ComputationalSpace = iota
	Angular
	DecoupledTwist
	Full
	Joint
)

var spaceNames = []string{"linear", "angular", "decoupled_twist", "full", "joint"}

func (s ComputationalSpace) String() string {
	if s < 0 || int(s) >= len(spaceNames) {
		return fmt.Sprintf("ComputationalSpace(%d)", int(s))
	}
	return spaceNames[s]
}

// ParseComputationalSpace maps a name such as "decoupled_twist" to its space.
func ParseComputationalSpace(name string) (ComputationalSpace, error) {
	key := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i, n := range spaceNames {
		if n == key {
			return ComputationalSpace(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSpace, name)
}

// Spaces lists every computational space.
func Spaces() []ComputationalSpace {
	return []ComputationalSpace{Linear, Angular, DecoupledTwist, Full, Joint}
}
