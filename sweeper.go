package sagabox

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sweeper discovers instances with outstanding pending rows and flushes them,
// repeating until a full pass finds none. Hosts run it at startup or on a
// schedule to recover commands a crashed process persisted but never flushed.
type Sweeper struct {
	store   Store
	flusher *Flusher
	cfg     SweeperConfig
}

// NewSweeper constructs a Sweeper with defaults and optional settings.
func NewSweeper(store Store, flusher *Flusher, opts ...SweeperOption) *Sweeper {
	if store == nil {
		panic("sagabox: nil Store")
	}
	if flusher == nil {
		panic("sagabox: nil Flusher")
	}

	var cfg SweeperConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Sweeper{
		store:   store,
		flusher: flusher,
		cfg:     cfg,
	}
}

// Sweep runs recovery passes until one finds no instance with pending rows.
// Candidates found in the same pass are flushed concurrently and joined
// before the next probe. The loop is live while producers keep inserting
// faster than flushes drain; in steady state it terminates on the first
// empty pass. A failed flush aborts the sweep and the joined errors are
// returned; rows stay durable for the next run.
func (s *Sweeper) Sweep(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		owners, err := s.probe(ctx)
		if err != nil {
			return err
		}
		if len(owners) == 0 {
			return nil
		}

		if err := s.flushAll(ctx, owners); err != nil {
			return err
		}
		s.cfg.Metrics.AddSweepPasses(1)
	}
}

// probe fetches up to ProbeLimit owner ids per category and unions them.
// The small limit bounds work per pass and lets writers interleave.
func (s *Sweeper) probe(ctx context.Context) ([]string, error) {
	immediate, err := s.store.CommandOwners(ctx, s.cfg.ProbeLimit)
	if err != nil {
		return nil, fmt.Errorf("sagabox: probe command owners failed: %w", err)
	}

	scheduled, err := s.store.ScheduledOwners(ctx, s.cfg.ProbeLimit)
	if err != nil {
		return nil, fmt.Errorf("sagabox: probe scheduled owners failed: %w", err)
	}

	seen := make(map[string]struct{}, len(immediate)+len(scheduled))
	owners := make([]string, 0, len(immediate)+len(scheduled))
	for _, id := range append(immediate, scheduled...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}

	return owners, nil
}

func (s *Sweeper) flushAll(ctx context.Context, owners []string) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(owners))

	for _, owner := range owners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.flusher.Flush(ctx, owner); err != nil {
				s.cfg.Logger.Error("sweep flush failed", "instance", owner, "err", err)
				errCh <- fmt.Errorf("sagabox: sweep flush %q: %w", owner, err)

				return
			}
			s.cfg.Logger.Debug("sweep flushed instance", "instance", owner)
		}()
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
