package experiment

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/tracker"
)

// Ensemble runs independent synthetic runs of one configuration, one
// goroutine per seed. Every run builds its own chain so nothing is shared.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	events    int64
	log       zerolog.Logger
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart, events int64, log zerolog.Logger) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, events: events, log: log}
}

func (e *Ensemble) Run(ctx context.Context) ([]tracker.Summary, error) {
	results := make([]tracker.Summary, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			exp, err := New(e.cfg.Clone(), e.log.With().Int64("seed", seed).Logger())
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx, exp.Generator(seed, e.events))
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
