package state

import "fmt"

// StateType tags the concrete kind of a state.
type StateType int

const (
	JointStateType StateType = iota
	JointPositionsType
	JointVelocitiesType
	JointAccelerationsType
	JointTorquesType
	CartesianStateType
	CartesianPoseType
	CartesianTwistType
	CartesianAccelerationType
	CartesianWrenchType
)

var stateTypeNames = map[StateType]string{
	JointStateType:            "JointState",
	JointPositionsType:        "JointPositions",
	JointVelocitiesType:       "JointVelocities",
	JointAccelerationsType:    "JointAccelerations",
	JointTorquesType:          "JointTorques",
	CartesianStateType:        "CartesianState",
	CartesianPoseType:         "CartesianPose",
	CartesianTwistType:        "CartesianTwist",
	CartesianAccelerationType: "CartesianAcceleration",
	CartesianWrenchType:       "CartesianWrench",
}

func (t StateType) String() string {
	if name, ok := stateTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("StateType(%d)", int(t))
}

// State is the metadata shared by every state: a name, a type tag and an
// empty flag. An empty state carries no valid numeric payload.
type State struct {
	name      string
	stateType StateType
	empty     bool
}

func newState(t StateType, name string, empty bool) State {
	return State{name: name, stateType: t, empty: empty}
}

func (s State) Name() string    { return s.name }
func (s State) Type() StateType { return s.stateType }
func (s State) IsEmpty() bool   { return s.empty }

func (s *State) SetName(name string) { s.name = name }

// SetEmpty marks the state as carrying no data. The numeric payload is kept
// but must not be used until it is set again.
func (s *State) SetEmpty() { s.empty = true }

func (s *State) setFilled() { s.empty = false }

func (s State) requireData() error {
	if s.empty {
		return emptyStateError(s.name)
	}
	return nil
}
