package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/specialistvlad/sapmd/internal/regbus"
	"github.com/specialistvlad/sapmd/internal/sapm"
	"github.com/specialistvlad/sapmd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	adc := &sapm.Component{Name: "Adc", Kind: sapm.KindAdc}
	r.PowerChanged(adc, true)
	r.PowerChanged(adc, false)
	r.PowerChanged(adc, true)
	assert.Equal(t, 2.0, promtest.ToFloat64(r.transitions.WithLabelValues("adc", "up")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.transitions.WithLabelValues("adc", "down")))

	r.WriteFailed(adc, assert.AnError)
	assert.Equal(t, 1.0, promtest.ToFloat64(r.writeFailures.WithLabelValues("Adc")))

	r.PassCompleted(sapm.PassStats{Powered: 3, Duration: time.Millisecond})
	assert.Equal(t, 3.0, promtest.ToFloat64(r.powered))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.passesCompleted))

	r.IdleStateChanged(sapm.IdleActive, sapm.IdleSleep)
	assert.Equal(t, 2.0, promtest.ToFloat64(r.idleState))

	r.BreakerStateChanged("codec", gobreaker.StateClosed, gobreaker.StateOpen)
	assert.Equal(t, float64(gobreaker.StateOpen), promtest.ToFloat64(r.breakerState.WithLabelValues("codec")))

	count, err := promtest.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg)
	assert.Panics(t, func() { NewRecorder(reg) })
}

func TestRecorder_Sleep(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := sapm.New(ctx, testutil.CaptureCard(), regbus.NewMemory(nil),
		sapm.WithObserver(r),
		sapm.WithClock(func() time.Time { return now }),
		sapm.WithIdleConfig(sapm.IdleConfig{Enabled: true, StandbyNow: true, SleepAfter: time.Second}))
	require.NoError(t, err)

	require.NoError(t, g.WriteControl(ctx, "Mic Switch", 1))
	assert.Equal(t, 4.0, promtest.ToFloat64(r.powered))

	require.Equal(t, sapm.IdleStandby, g.Tick(ctx))
	now = now.Add(2 * time.Second)
	require.Equal(t, sapm.IdleSleep, g.Tick(ctx))

	assert.Equal(t, 0.0, promtest.ToFloat64(r.powered))
	assert.Equal(t, float64(sapm.IdleSleep), promtest.ToFloat64(r.idleState))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.transitions.WithLabelValues("adc", "down")))

	g.NotifyActivity(ctx)
	assert.Equal(t, 4.0, promtest.ToFloat64(r.powered))
}
