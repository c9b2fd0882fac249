package sim

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Factory builds the simulator and initial state of one ensemble run.
type Factory func(run int, seed int64) (*Simulator, State, error)

// Ensemble runs independent simulations in parallel, one goroutine per run.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per run. Failed runs leave a nil result and their
// errors are combined.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			s, x0, err := e.factory(idx, cfgCopy.Seed)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}
			res, err := s.Run(ctx, x0, cfgCopy)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}
			results[idx] = res
		}(i)
	}

	wg.Wait()

	return results, multierr.Combine(errs...)
}
