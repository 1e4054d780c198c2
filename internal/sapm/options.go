package sapm

import (
	"context"
	"time"

	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

// Idle monitor defaults, used when neither the card nor an Option sets them.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultStandbyAfter = time.Minute
	DefaultSleepAfter   = 3 * time.Minute
)

// RegisterBus is the codec register access collaborator. Implementations must
// return promptly once ctx is done.
type RegisterBus interface {
	ReadRegister(ctx context.Context, addr uint32) (uint32, error)
	WriteRegister(ctx context.Context, addr, val uint32) error
}

// StandbyHint is invoked once per component on the Active to Standby
// transition, typically to gate a clock.
type StandbyHint func(ctx context.Context, c *Component) error

// IdleConfig controls the idle monitor.
type IdleConfig struct {
	Enabled      bool
	PollInterval time.Duration
	StandbyAfter time.Duration
	SleepAfter   time.Duration
	// StandbyNow skips the inactivity window before standby.
	StandbyNow bool
}

func (c IdleConfig) withDefaults() IdleConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StandbyAfter <= 0 {
		c.StandbyAfter = DefaultStandbyAfter
	}
	if c.SleepAfter <= 0 {
		c.SleepAfter = DefaultSleepAfter
	}
	return c
}

// Options holds the runtime collaborators of a Graph.
type Options struct {
	// WriteTimeout bounds every register access. Zero means no bound.
	WriteTimeout time.Duration
	Observer     Observer
	StandbyHints map[Kind]StandbyHint
	// Now is the clock used by the idle monitor.
	Now  func() time.Time
	Idle *IdleConfig
}

// Option configures a Graph.
type Option func(*Options)

// WithWriteTimeout bounds each register read or write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) { o.WriteTimeout = d }
}

// WithObserver attaches an observer for pass, power and idle events.
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// WithStandbyHint registers the standby hint for a kind. A nil hint removes
// the default one.
func WithStandbyHint(k Kind, hint StandbyHint) Option {
	return func(o *Options) {
		if hint == nil {
			delete(o.StandbyHints, k)
			return
		}
		o.StandbyHints[k] = hint
	}
}

// WithClock replaces the wall clock used by the idle monitor.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithIdleConfig overrides the idle policy read from the card.
func WithIdleConfig(cfg IdleConfig) Option {
	return func(o *Options) {
		c := cfg
		o.Idle = &c
	}
}

func defaultOptions() Options {
	return Options{
		Observer: NopObserver{},
		StandbyHints: map[Kind]StandbyHint{
			KindAdc:    captureClockHint,
			KindAifOut: captureClockHint,
			KindDac:    playbackClockHint,
			KindAifIn:  playbackClockHint,
		},
		Now: time.Now,
	}
}

func captureClockHint(ctx context.Context, c *Component) error {
	ctxlog.FromContext(ctx).Info("Capture clock entering standby.", "component", c.Name)
	return nil
}

func playbackClockHint(ctx context.Context, c *Component) error {
	ctxlog.FromContext(ctx).Info("Playback clock entering standby.", "component", c.Name)
	return nil
}
