package regbus

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg Config
		err error
	}{
		{Config{Stride: 4, MaxRegister: 0x100}, nil},
		{Config{Stride: 8, MaxRegister: 0x100}, nil},
		{Config{Stride: 0, MaxRegister: 0x100}, errBadStride},
		{Config{Stride: 2, MaxRegister: 0x100}, errBadStride},
		{Config{Stride: 4, MaxRegister: 0x102}, errBadMaxReg},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); err != tt.err {
			t.Errorf("%+v: got %v, want %v", tt.cfg, err, tt.err)
		}
	}
}

func TestConfigCheck(t *testing.T) {
	c := Config{Stride: 4, MaxRegister: 0x10}
	if err := c.Check(0x10); err != nil {
		t.Errorf("last register rejected: %v", err)
	}
	if err := c.Check(0x14); !errors.Is(err, errOutOfBounds) {
		t.Errorf("got %v, want out of bounds", err)
	}
	if err := c.Check(0x6); !errors.Is(err, errUnaligned) {
		t.Errorf("got %v, want unaligned", err)
	}
	if c.Size() != 0x14 {
		t.Errorf("size = 0x%x", c.Size())
	}
}

func TestMemory(t *testing.T) {
	m, err := NewMemory(Config{Stride: 4, MaxRegister: 0x20})
	if err != nil {
		t.Fatal(err)
	}
	var writes []uint32
	m.OnWrite = func(off, v uint32) {
		if off == 0x8 {
			writes = append(writes, v)
		}
	}

	m.Write(0x8, 0xf0f0)
	m.UpdateBits(0x8, 0xff, 0x0f)
	if got := m.Read(0x8); got != 0xf00f {
		t.Errorf("read 0x%x, want 0xf00f", got)
	}
	if len(writes) != 2 || writes[1] != 0xf00f {
		t.Errorf("hook saw %x", writes)
	}

	m.Poke(0x4, 7)
	if len(writes) != 2 {
		t.Error("poke must not call OnWrite")
	}
	m.OnRead = func(off, stored uint32) uint32 {
		if off == 0x4 {
			return stored + 1
		}
		return stored
	}
	if m.Read(0x4) != 8 || m.Peek(0x4) != 7 {
		t.Error("OnRead override not applied to Read only")
	}
}

func TestMemoryOutOfBoundsPanics(t *testing.T) {
	m, _ := NewMemory(Config{Stride: 4, MaxRegister: 0x20})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	m.Write(0x24, 1)
}
