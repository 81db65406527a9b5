package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	online atomic.Bool
	calls  atomic.Int32
}

func (f *fakeChecker) CheckStatus(_ context.Context) bool {
	f.calls.Add(1)
	return f.online.Load()
}

func TestStatusProbeChecksImmediatelyAndOnTicks(t *testing.T) {
	checker := &fakeChecker{}
	checker.online.Store(true)

	probe := NewStatusProbe(checker, 10*time.Millisecond, time.Second)

	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- probe.Start(ctx) }()

	require.Eventually(t, func() bool { return checker.calls.Load() >= 2 }, time.Second, time.Millisecond)
	assert.True(t, probe.Online())

	checker.online.Store(false)
	require.Eventually(t, func() bool { return !probe.Online() }, time.Second, time.Millisecond)

	cancelFn()
	assert.NoError(t, <-done)
}
