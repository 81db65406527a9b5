package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
)

type Worker interface {
	Name() string
	Start(context.Context) error
}

type Group []Worker

// Start runs all workers and blocks until every one of them has stopped.
// The first worker to return, cleanly or not, cancels the rest: when the
// console driver hits EOF the probe must not keep the process alive. Worker
// errors are aggregated; nil means everything stopped cleanly.
func (g Group) Start(ctx context.Context) error {
	runCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	for _, w := range g {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancelFn()

			slog.Info("starting worker", "name", w.Name())
			err := w.Start(runCtx)
			slog.Info("worker stopped", "name", w.Name())

			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", w.Name(), err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
