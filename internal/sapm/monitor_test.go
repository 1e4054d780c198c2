package sapm

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/sapmd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor(t *testing.T) {
	t.Run("polls the graph into sleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g, _, _ := newMemoryGraph(t, testutil.CaptureCard(), WithIdleConfig(IdleConfig{
			Enabled:      true,
			PollInterval: 5 * time.Millisecond,
			StandbyAfter: time.Millisecond,
			SleepAfter:   time.Millisecond,
		}))
		require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))

		m := NewMonitor(g)
		m.Start(ctx)
		defer m.Stop()

		require.Eventually(t, func() bool {
			return g.IdleStatus().State == IdleSleep
		}, 2*time.Second, 5*time.Millisecond)
		assert.Empty(t, poweredSet(g))
	})

	t.Run("stop is idempotent and safe before start", func(t *testing.T) {
		g, _, _ := newMemoryGraph(t, testutil.CaptureCard())
		m := NewMonitor(g)

		assert.NotPanics(t, func() {
			m.Stop()
			m.Stop()
			m.Start(context.Background())
			m.Start(context.Background())
			m.Stop()
			m.Stop()
		})
	})

	t.Run("run returns when the context ends", func(t *testing.T) {
		g, _, _ := newMemoryGraph(t, testutil.CaptureCard())
		m := NewMonitor(g)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not stop")
		}
	})
}
