package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ctrlib/internal/integrators"
	"github.com/san-kum/ctrlib/internal/sim"
)

type decay struct{}

func (decay) Derive(x sim.State, u sim.Control, t float64) sim.State {
	dx := make(sim.State, len(x))
	for i := range x {
		dx[i] = -x[i]
	}
	return dx
}
func (decay) StateDim() int   { return 2 }
func (decay) ControlDim() int { return 0 }

type idle struct{}

func (idle) Compute(x sim.State, t float64) (sim.Control, error) { return sim.Control{}, nil }

func sine(n int, dt, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) * dt)
	}
	return out
}

func TestPowerSpectrum(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 5 * float64(i) / 64)
	}
	ps := PowerSpectrum(data)
	require.Len(t, ps, 32)
	assert.InDelta(t, 32, ps[5], 1e-9)
	assert.InDelta(t, 0, ps[4], 1e-9)
}

func TestDominantFrequency(t *testing.T) {
	f, err := DominantFrequency(sine(500, 0.01, 2), 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, f, 1e-9)

	// an offset does not hide the oscillation
	data := sine(300, 0.01, 5)
	for i := range data {
		data[i] += 10
	}
	f, err = DominantFrequency(data, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, f, 1e-9)

	_, err = DominantFrequency([]float64{1, 2}, 0.01)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestDecayRate(t *testing.T) {
	times := make([]float64, 100)
	values := make([]float64, 100)
	for i := range times {
		times[i] = float64(i) * 0.05
		values[i] = -3 * math.Exp(-2*times[i])
	}
	rate, err := DecayRate(times, values)
	require.NoError(t, err)
	assert.InDelta(t, -2, rate, 1e-9)

	_, err = DecayRate([]float64{0, 1}, []float64{0, 0})
	assert.ErrorIs(t, err, ErrTooShort)
	_, err = DecayRate([]float64{0}, []float64{1, 2})
	assert.Error(t, err)
}

func TestSettlingTime(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}

	ts, ok := SettlingTime(times, []float64{1, 0.5, 0.05, -0.02, 0.2}, 0.1)
	assert.False(t, ok)
	assert.Zero(t, ts)

	ts, ok = SettlingTime(times, []float64{1, 0.5, 0.05, -0.02, 0.01}, 0.1)
	assert.True(t, ok)
	assert.Equal(t, 2.0, ts)

	ts, ok = SettlingTime(times, []float64{0, 0, 0, 0, 0}, 0.1)
	assert.True(t, ok)
	assert.Equal(t, 0.0, ts)
}

func TestLyapunovExponent(t *testing.T) {
	build := func() (*sim.Simulator, error) {
		return sim.New(decay{}, integrators.NewRK4(), idle{}), nil
	}
	cfg := sim.DefaultConfig()
	cfg.Duration = 2

	lambda, err := LyapunovExponent(context.Background(), build, sim.State{1, 0.5}, cfg, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, -1, lambda, 1e-6)

	_, err = LyapunovExponent(context.Background(), build, sim.State{1, 0.5}, cfg, 0)
	assert.Error(t, err)

	failing := func() (*sim.Simulator, error) { return nil, errors.New("boom") }
	_, err = LyapunovExponent(context.Background(), failing, sim.State{1}, cfg, 1e-6)
	assert.EqualError(t, err, "boom")
}

func TestSweep(t *testing.T) {
	boom := errors.New("boom")
	points, err := Sweep(0, 1, 5, func(p float64) (float64, error) {
		if p == 0.5 {
			return 0, boom
		}
		return p * p, nil
	})
	require.Len(t, points, 5)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0.25, points[1].Param)
	assert.InDelta(t, 0.0625, points[1].Value, 1e-12)
	assert.ErrorIs(t, points[2].Err, boom)
	assert.NoError(t, points[4].Err)

	points, err = Sweep(2, 3, 1, func(p float64) (float64, error) { return p, nil })
	require.NoError(t, err)
	assert.Equal(t, []SweepPoint{{Param: 2, Value: 2}}, points)

	_, err = Sweep(0, 1, 0, nil)
	assert.Error(t, err)
}

func TestPhasePortrait(t *testing.T) {
	_, err := NewPhasePortrait("q", []float64{1, 2}, "dq", []float64{1})
	assert.Error(t, err)

	xs := sine(100, 0.01, 1)
	ys := sine(100, 0.01, 2)
	p, err := NewPhasePortrait("q_shoulder", xs, "dq_shoulder", ys)
	require.NoError(t, err)

	out := p.ASCII(40, 12)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 13)
	assert.Contains(t, lines[0], "dq_shoulder")
	assert.Contains(t, out, "o")
	assert.Contains(t, out, "─")
	for _, l := range lines[1:] {
		assert.Equal(t, 40, len([]rune(l)))
	}

	assert.Empty(t, (*PhasePortrait)(nil).ASCII(40, 12))
}
