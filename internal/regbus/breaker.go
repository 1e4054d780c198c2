package regbus

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// Bus is the register access contract shared by every implementation here.
type Bus interface {
	ReadRegister(ctx context.Context, addr uint32) (uint32, error)
	WriteRegister(ctx context.Context, addr, val uint32) error
}

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Zero means 5.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	// Zero means 30s.
	OpenTimeout time.Duration
	// OnStateChange is called on every breaker state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Breaker guards a Bus with a circuit breaker. While open, every access fails
// fast with gobreaker.ErrOpenState.
type Breaker struct {
	bus Bus
	cb  *gobreaker.CircuitBreaker
}

// NewBreaker wraps bus.
func NewBreaker(bus Bus, s BreakerSettings) *Breaker {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := s.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	name := s.Name
	if name == "" {
		name = "register-bus"
	}
	return &Breaker{
		bus: bus,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: s.OnStateChange,
		}),
	}
}

// ReadRegister implements sapm.RegisterBus.
func (b *Breaker) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.bus.ReadRegister(ctx, addr)
	})
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

// WriteRegister implements sapm.RegisterBus.
func (b *Breaker) WriteRegister(ctx context.Context, addr, val uint32) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.bus.WriteRegister(ctx, addr, val)
	})
	return err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
