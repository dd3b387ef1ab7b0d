// Package scdc implements access to the Status and Control Data Channel of
// HDMI 2.0 sinks, used to negotiate scrambling and the TMDS clock ratio.
package scdc

import (
	"periph.io/x/conn/v3/i2c"
)

// Addr is the I2C address of the SCDC register block.
const Addr = 0x54

// SCDC registers.
const (
	RegSinkVersion   = 0x01
	RegSourceVersion = 0x02

	RegUpdate0 = 0x10

	RegTMDSConfig                 = 0x20
	RegTMDSConfigBitClockRatio40  = 1 << 1
	RegTMDSConfigScramblingEnable = 1 << 0

	RegScramblerStatus           = 0x21
	RegScramblerStatusScrambling = 1 << 0

	RegConfig0 = 0x30

	RegStatusFlags0 = 0x40
)

// Dev is an SCDC register block on a DDC bus.
type Dev struct {
	d i2c.Dev
}

// New returns the SCDC block reachable through bus.
func New(bus i2c.Bus) *Dev {
	return &Dev{d: i2c.Dev{Bus: bus, Addr: Addr}}
}

// ReadByte reads a single register.
func (s *Dev) ReadByte(reg uint8) (byte, error) {
	var b [1]byte
	err := s.d.Tx([]byte{reg}, b[:])
	return b[0], err
}

// WriteByte writes a single register.
func (s *Dev) WriteByte(reg uint8, v byte) error {
	return s.d.Tx([]byte{reg, v}, nil)
}

func (s *Dev) updateBits(reg uint8, mask, v byte) error {
	o, err := s.ReadByte(reg)
	if err != nil {
		return err
	}
	return s.WriteByte(reg, o&^mask|v&mask)
}

// SinkVersion returns the SCDC version implemented by the sink.
func (s *Dev) SinkVersion() (uint8, error) {
	return s.ReadByte(RegSinkVersion)
}

// SetSourceVersion tells the sink the SCDC version implemented by the source.
func (s *Dev) SetSourceVersion(v uint8) error {
	return s.WriteByte(RegSourceVersion, v)
}

// SetScrambling enables or disables scrambling on the sink.
func (s *Dev) SetScrambling(enable bool) error {
	var v byte
	if enable {
		v = RegTMDSConfigScramblingEnable
	}
	return s.updateBits(RegTMDSConfig, RegTMDSConfigScramblingEnable, v)
}

// SetHighTMDSClockRatio selects the 1/40 TMDS bit clock ratio on the sink,
// required above 340 MHz.
func (s *Dev) SetHighTMDSClockRatio(enable bool) error {
	var v byte
	if enable {
		v = RegTMDSConfigBitClockRatio40
	}
	return s.updateBits(RegTMDSConfig, RegTMDSConfigBitClockRatio40, v)
}

// ScramblingStatus returns true if the sink reports it detects a scrambled
// signal. Read errors are reported as false.
func (s *Dev) ScramblingStatus() bool {
	v, err := s.ReadByte(RegScramblerStatus)
	return err == nil && v&RegScramblerStatusScrambling != 0
}
