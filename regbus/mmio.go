package regbus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"periph.io/x/host/v3/pmem"
)

// MMIO is a Bus over physical memory mapped through /dev/mem. It requires
// root privileges.
type MMIO struct {
	cfg  Config
	view *pmem.View
	regs []uint32

	// Serializes read-modify-write cycles. Plain reads and writes are single
	// aligned accesses and don't take it.
	mu sync.Mutex
}

// MapMMIO maps the registers described by cfg starting at physical address
// base.
func MapMMIO(base uint64, cfg Config) (*MMIO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v, err := pmem.Map(base, cfg.Size())
	if err != nil {
		return nil, fmt.Errorf("regbus: map 0x%x: %w", base, err)
	}
	return &MMIO{
		cfg:  cfg,
		view: v,
		regs: v.Uint32(),
	}, nil
}

func (m *MMIO) reg(offset uint32) *uint32 {
	if err := m.cfg.Check(offset); err != nil {
		panic(err)
	}
	return &m.regs[offset/4]
}

// Read implements Bus.
func (m *MMIO) Read(offset uint32) uint32 {
	return atomic.LoadUint32(m.reg(offset))
}

// Write implements Bus.
func (m *MMIO) Write(offset uint32, v uint32) {
	atomic.StoreUint32(m.reg(offset), v)
}

// UpdateBits implements Bus.
func (m *MMIO) UpdateBits(offset, mask, v uint32) {
	r := m.reg(offset)
	m.mu.Lock()
	defer m.mu.Unlock()
	o := atomic.LoadUint32(r)
	n := o&^mask | v&mask
	if n != o {
		atomic.StoreUint32(r, n)
	}
}

// Close unmaps the registers. The bus must not be used afterwards.
func (m *MMIO) Close() error {
	m.regs = nil
	return m.view.Close()
}
