package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.state.IsValid())
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, tt.state.Norm(), 1e-10, "Norm(%v)", tt.state)
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	assert.Equal(t, State{5, 7, 9}, a.Add(b))
	assert.Equal(t, State{3, 3, 3}, b.Sub(a))
	assert.Equal(t, State{2, 4, 6}, a.Scale(2))

	c := a.Clone()
	c[0] = 99
	assert.Equal(t, 1.0, a[0], "Clone did not create an independent copy")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Positive(t, cfg.Dt)
	assert.Positive(t, cfg.Duration)
	assert.True(t, cfg.ValidateState)
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 1.5, Step: 150, Wrapped: ErrInvalidState}
	assert.EqualError(t, err, "step 150 (t=1.5000): sim: invalid state (NaN or Inf detected)")
	assert.ErrorIs(t, err, ErrInvalidState)
}
