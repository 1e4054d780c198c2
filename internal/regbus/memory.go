package regbus

import (
	"context"
	"sync"

	"github.com/specialistvlad/sapmd/internal/config"
)

// Write is one entry of the Memory write log.
type Write struct {
	Address uint32
	Value   uint32
}

// Memory is a simulated codec register file. Unwritten registers read as
// zero. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	regs   map[uint32]uint32
	writes []Write
}

// NewMemory returns a register file seeded with the given values.
func NewMemory(seed map[uint32]uint32) *Memory {
	regs := make(map[uint32]uint32, len(seed))
	for addr, val := range seed {
		regs[addr] = val
	}
	return &Memory{regs: regs}
}

// FromCard returns a register file seeded from the card's register blocks.
func FromCard(card *config.Card) *Memory {
	seed := make(map[uint32]uint32, len(card.Registers))
	for _, r := range card.Registers {
		seed[r.Address] = r.Value
	}
	return NewMemory(seed)
}

// ReadRegister implements sapm.RegisterBus.
func (m *Memory) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr], nil
}

// WriteRegister implements sapm.RegisterBus.
func (m *Memory) WriteRegister(ctx context.Context, addr, val uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[addr] = val
	m.writes = append(m.writes, Write{Address: addr, Value: val})
	return nil
}

// Value returns the current content of a register.
func (m *Memory) Value(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// Writes returns a copy of the write log.
func (m *Memory) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// ResetWrites clears the write log.
func (m *Memory) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}
