// Package regbus defines the register bus a memory mapped controller is
// driven through, and a few implementations of it.
package regbus

import (
	"errors"
	"fmt"
	"sync"
)

// Bus is an addressable space of 32-bit registers. Implementations must make
// each method atomic with respect to the others, UpdateBits included, since
// interrupt handlers and callers access the same bus concurrently.
type Bus interface {
	// Read returns the value of the register at offset.
	Read(offset uint32) uint32

	// Write stores v in the register at offset.
	Write(offset uint32, v uint32)

	// UpdateBits replaces the bits selected by mask with those of v.
	UpdateBits(offset, mask, v uint32)
}

// Config describes the register layout of a bus.
type Config struct {
	// Stride is the distance between two consecutive registers in bytes.
	Stride uint32

	// MaxRegister is the offset of the last valid register.
	MaxRegister uint32
}

var (
	errBadStride   = errors.New("regbus: stride must be a non zero multiple of 4")
	errBadMaxReg   = errors.New("regbus: max register must be aligned to stride")
	errOutOfBounds = errors.New("regbus: offset out of bounds")
	errUnaligned   = errors.New("regbus: offset not aligned to stride")
)

// Validate returns an error if the layout is unusable.
func (c Config) Validate() error {
	if c.Stride == 0 || c.Stride%4 != 0 {
		return errBadStride
	}
	if c.MaxRegister%c.Stride != 0 {
		return errBadMaxReg
	}
	return nil
}

// Size returns the number of bytes spanned by the registers.
func (c Config) Size() int {
	return int(c.MaxRegister) + 4
}

// Check returns an error if offset is not a valid register.
func (c Config) Check(offset uint32) error {
	if offset > c.MaxRegister {
		return fmt.Errorf("%w: 0x%x > 0x%x", errOutOfBounds, offset, c.MaxRegister)
	}
	if offset%c.Stride != 0 {
		return fmt.Errorf("%w: 0x%x", errUnaligned, offset)
	}
	return nil
}

// Memory is a Bus backed by ordinary memory. It's useful for simulating a
// controller. Hooks may be set before first use to observe or emulate
// hardware side effects.
type Memory struct {
	cfg Config

	mu   sync.Mutex
	regs []uint32

	// OnWrite, if set, is called after every Write or UpdateBits with the
	// offset and the resulting register value. It's called without the bus
	// lock held so it can access the bus.
	OnWrite func(offset, v uint32)

	// OnRead, if set, is called before every Read and may return a value
	// overriding the stored one.
	OnRead func(offset uint32, stored uint32) uint32
}

// NewMemory allocates a zeroed register file for the given layout.
func NewMemory(cfg Config) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Memory{
		cfg:  cfg,
		regs: make([]uint32, cfg.MaxRegister/cfg.Stride+1),
	}, nil
}

func (m *Memory) index(offset uint32) int {
	if err := m.cfg.Check(offset); err != nil {
		panic(err)
	}
	return int(offset / m.cfg.Stride)
}

// Read implements Bus.
func (m *Memory) Read(offset uint32) uint32 {
	i := m.index(offset)
	m.mu.Lock()
	v := m.regs[i]
	m.mu.Unlock()
	if m.OnRead != nil {
		v = m.OnRead(offset, v)
	}
	return v
}

// Write implements Bus.
func (m *Memory) Write(offset uint32, v uint32) {
	i := m.index(offset)
	m.mu.Lock()
	m.regs[i] = v
	m.mu.Unlock()
	if m.OnWrite != nil {
		m.OnWrite(offset, v)
	}
}

// UpdateBits implements Bus.
func (m *Memory) UpdateBits(offset, mask, v uint32) {
	i := m.index(offset)
	m.mu.Lock()
	n := m.regs[i]&^mask | v&mask
	m.regs[i] = n
	m.mu.Unlock()
	if m.OnWrite != nil {
		m.OnWrite(offset, n)
	}
}

// Peek returns the stored value of a register without calling OnRead.
func (m *Memory) Peek(offset uint32) uint32 {
	i := m.index(offset)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[i]
}

// Poke stores a register value without calling OnWrite, as hardware would
// when updating a status register.
func (m *Memory) Poke(offset, v uint32) {
	i := m.index(offset)
	m.mu.Lock()
	m.regs[i] = v
	m.mu.Unlock()
}
