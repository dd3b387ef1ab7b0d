// Package ddc defines the message model of the Display Data Channel, the I2C
// side channel of a display link, and helpers built on it.
package ddc

// Well known DDC addresses.
const (
	// AddrEDID is the address of the EDID EEPROM.
	AddrEDID = 0x50

	// AddrSegment is the E-DDC segment pointer address.
	AddrSegment = 0x30

	// AddrCI is the DDC/CI (monitor control) address.
	AddrCI = 0x37
)

// Flags modify how a message is transferred.
type Flags uint16

// Message flags.
const (
	// FlagRead marks a message as a read from the device. Messages without it
	// are writes.
	FlagRead Flags = 1 << 0
)

// Msg is a single segment of an I2C transfer. Consecutive messages of a
// transfer are separated by repeated starts.
type Msg struct {
	Addr  uint16
	Flags Flags
	Buf   []byte
}

// IsRead returns true if m reads from the device.
func (m Msg) IsRead() bool {
	return m.Flags&FlagRead != 0
}

// Transferer is implemented by DDC controllers capable of combined
// multi-message transfers.
type Transferer interface {
	// Transfer executes msgs in order and returns the number of messages
	// processed. Read messages are filled in place. A failing message aborts
	// the rest of the batch.
	Transfer(msgs []Msg) (int, error)
}

// Func is a bit set of the transfer types a controller supports.
type Func uint32

// Functionality bits, with the same values as the Linux I2C subsystem.
const (
	FuncI2C       Func = 0x00000001
	FuncSMBusEmul Func = 0x0eff0008
)

// Tx performs a write of w followed by a read into r on addr, skipping either
// when empty.
func Tx(t Transferer, addr uint16, w, r []byte) error {
	var buf [2]Msg
	msgs := buf[:0]
	if len(w) > 0 {
		msgs = append(msgs, Msg{Addr: addr, Buf: w})
	}
	if len(r) > 0 {
		msgs = append(msgs, Msg{Addr: addr, Flags: FlagRead, Buf: r})
	}
	if len(msgs) == 0 {
		return nil
	}
	_, err := t.Transfer(msgs)
	return err
}
