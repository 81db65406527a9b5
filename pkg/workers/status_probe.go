package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type StatusChecker interface {
	CheckStatus(ctx context.Context) bool
}

// statusProbe polls the backend health endpoint on a fixed interval. Each
// probe is bounded by its own timeout so a hung backend reads as offline
// instead of blocking the loop.
type statusProbe struct {
	checker  StatusChecker
	interval time.Duration
	timeout  time.Duration
	online   atomic.Bool
}

func NewStatusProbe(checker StatusChecker, interval, timeout time.Duration) *statusProbe {
	return &statusProbe{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
	}
}

func (s *statusProbe) Name() string { return "status_probe" }

func (s *statusProbe) Online() bool { return s.online.Load() }

func (s *statusProbe) Start(ctx context.Context) error {
	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *statusProbe) check(ctx context.Context) {
	probeCtx, cancelFn := context.WithTimeout(ctx, s.timeout)
	defer cancelFn()

	online := s.checker.CheckStatus(probeCtx)
	if s.online.Swap(online) != online {
		slog.Info("backend status changed", "online", online)
	}
}
