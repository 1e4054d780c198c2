package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by FlakyBus for every injected failure.
var ErrInjected = errors.New("injected bus failure")

// Bus is the register access contract FlakyBus wraps.
type Bus interface {
	ReadRegister(ctx context.Context, addr uint32) (uint32, error)
	WriteRegister(ctx context.Context, addr, val uint32) error
}

// FlakyBus wraps a Bus and fails or stalls writes to selected addresses.
type FlakyBus struct {
	Inner Bus

	mu       sync.Mutex
	failing  map[uint32]bool
	noReads  map[uint32]bool
	stalling map[uint32]bool
	failAll  bool
	writes   int
}

// NewFlakyBus wraps inner with no failures configured.
func NewFlakyBus(inner Bus) *FlakyBus {
	return &FlakyBus{
		Inner:    inner,
		failing:  make(map[uint32]bool),
		noReads:  make(map[uint32]bool),
		stalling: make(map[uint32]bool),
	}
}

// FailWrites makes every write to addr fail until Heal is called.
func (f *FlakyBus) FailWrites(addr uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[addr] = true
}

// FailReads makes every read of addr fail until Heal is called.
func (f *FlakyBus) FailReads(addr uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noReads[addr] = true
}

// StallWrites makes every write to addr block until its context is done.
func (f *FlakyBus) StallWrites(addr uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stalling[addr] = true
}

// FailEverything makes every read and write fail until Heal is called.
func (f *FlakyBus) FailEverything() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = true
}

// Heal removes every configured failure.
func (f *FlakyBus) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = make(map[uint32]bool)
	f.noReads = make(map[uint32]bool)
	f.stalling = make(map[uint32]bool)
	f.failAll = false
}

// WriteAttempts returns the number of writes attempted, failed or not.
func (f *FlakyBus) WriteAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FlakyBus) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	f.mu.Lock()
	fail := f.failAll || f.noReads[addr]
	f.mu.Unlock()
	if fail {
		return 0, ErrInjected
	}
	return f.Inner.ReadRegister(ctx, addr)
}

func (f *FlakyBus) WriteRegister(ctx context.Context, addr, val uint32) error {
	f.mu.Lock()
	f.writes++
	fail := f.failAll || f.failing[addr]
	stall := f.stalling[addr]
	f.mu.Unlock()

	if stall {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return ErrInjected
	}
	return f.Inner.WriteRegister(ctx, addr, val)
}
