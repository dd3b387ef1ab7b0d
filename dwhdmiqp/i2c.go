package dwhdmiqp

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/oxplot/go-hdmi"
	"github.com/oxplot/go-hdmi/ddc"
)

const (
	ddcName = "DesignWare HDMI QP"

	// Each byte gets its own window, whatever the length of the transfer.
	byteTimeout = 100 * time.Millisecond

	maxSpeed = 400 * physic.KiloHertz

	i2cIRQs = regMainUnit1I2CMOpDone | regMainUnit1I2CMNack
)

// DDC is the I2C master of the controller. The controller doesn't expose the
// bus directly: every byte is a separate register access on the slave, so
// only transfers that look like register reads and writes can be emulated.
//
// DDC implements i2c.Bus and ddc.Transferer and is safe for concurrent use.
type DDC struct {
	tx *TX

	mu   sync.Mutex // held for a whole transfer
	done chan struct{}
	stat atomic.Uint32 // interrupt status latched by HandleIRQ

	slaveReg  uint8 // register on the slave, auto-incremented per byte
	isRegAddr bool  // slaveReg was set in the current transfer
	isSegment bool  // next read byte is an extended (segment) read
}

var (
	_ i2c.BusCloser  = (*DDC)(nil)
	_ ddc.Transferer = (*DDC)(nil)
)

func newDDC(tx *TX) *DDC {
	return &DDC{
		tx:   tx,
		done: make(chan struct{}, 1),
	}
}

func (d *DDC) String() string {
	return ddcName
}

// Duplex implements conn.Conn.
func (d *DDC) Duplex() conn.Duplex {
	return conn.Half
}

// Functionality returns the kind of transfers the controller supports.
func (d *DDC) Functionality() ddc.Func {
	return ddc.FuncI2C | ddc.FuncSMBusEmul
}

// SetSpeed implements i2c.Bus. The bus runs at the fast mode timings
// programmed at initialization, so only speeds up to 400kHz are accepted and
// they don't change anything.
func (d *DDC) SetSpeed(f physic.Frequency) error {
	if f > maxSpeed {
		return fmt.Errorf("dwhdmiqp: invalid speed %s; maximum supported clock is %s", f, maxSpeed)
	}
	return nil
}

// Tx implements i2c.Bus. If w is non-empty, its first byte is the register
// address on the slave.
func (d *DDC) Tx(addr uint16, w, r []byte) error {
	return ddc.Tx(d, addr, w, r)
}

// Close implements i2c.BusCloser. The bus belongs to the transmitter and
// stays usable.
func (d *DDC) Close() error {
	return nil
}

// Transfer implements ddc.Transferer. On success it returns len(msgs).
//
// A one byte write to ddc.AddrSegment sets the E-DDC segment pointer for the
// following read instead of being sent on its own. DDC/CI and empty messages
// are rejected with hdmi.ErrNotSupported before touching the hardware.
func (d *DDC) Transfer(msgs []ddc.Msg) (int, error) {
	if len(msgs) == 0 {
		return 0, hdmi.ErrNotSupported
	}
	for i, m := range msgs {
		// The controller can't do the multi-byte register offsets DDC/CI
		// needs.
		if m.Addr == ddc.AddrCI {
			return 0, hdmi.ErrNotSupported
		}
		if len(m.Buf) == 0 {
			d.tx.errorf("unsupported transfer %d/%d, no data", i+1, len(msgs))
			return 0, hdmi.ErrNotSupported
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	bus := d.tx.bus

	// Unmute DONE and ERROR interrupts

	bus.UpdateBits(regMainUnit1IntMaskN, i2cIRQs, i2cIRQs)
	defer bus.UpdateBits(regMainUnit1IntMaskN, i2cIRQs, 0)

	// Slave address is taken from the first message

	addr := msgs[0].Addr
	if addr == ddc.AddrSegment && len(msgs[0].Buf) == 1 {
		addr = ddc.AddrEDID
	}
	bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0Slave, uint32(addr)<<regI2CMIfControl0SlavePos)

	d.isRegAddr = false
	d.isSegment = false

	for _, m := range msgs {
		var err error
		switch {
		case m.Addr == ddc.AddrSegment && len(m.Buf) == 1:
			d.isSegment = true
			bus.UpdateBits(regI2CMIfControl1, regI2CMIfControl1SegAddr, ddc.AddrSegment)
			bus.UpdateBits(regI2CMIfControl1, regI2CMIfControl1SegPtr, uint32(m.Buf[0])<<regI2CMIfControl1SegPtrPos)
		case m.IsRead():
			err = d.read(m.Buf)
		default:
			err = d.write(m.Buf)
		}
		if err != nil {
			return 0, err
		}
	}

	return len(msgs), nil
}

func (d *DDC) read(buf []byte) error {
	if !d.isRegAddr {
		d.tx.debugf("set read register address to 0")
		d.slaveReg = 0
		d.isRegAddr = true
	}

	for i := range buf {
		op := uint32(regI2CMIfControl0Read)
		if d.isSegment {
			op = regI2CMIfControl0Ext
			d.isSegment = false
		}
		if err := d.xfer(op); err != nil {
			d.tx.errorf("i2c read: %v", err)
			return err
		}
		buf[i] = byte(d.tx.bus.Read(regI2CMIfRdData03))
		d.tx.bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0WrMask, 0)
	}

	return nil
}

func (d *DDC) write(buf []byte) error {
	if !d.isRegAddr {
		// First byte is the register address
		d.slaveReg = buf[0]
		buf = buf[1:]
		d.isRegAddr = true
	}

	for _, b := range buf {
		d.tx.bus.Write(regI2CMIfWrData03, uint32(b))
		if err := d.xfer(regI2CMIfControl0Write); err != nil {
			d.tx.errorf("i2c write: %v", err)
			return err
		}
		d.tx.bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0WrMask, 0)
	}

	return nil
}

// xfer runs a single byte operation on the current slave register and
// advances it. On failure the I2C master is reset.
func (d *DDC) xfer(op uint32) error {
	bus := d.tx.bus

	// Drop a completion left over from a late interrupt
	select {
	case <-d.done:
	default:
	}

	bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0Addr, uint32(d.slaveReg)<<regI2CMIfControl0AddrPos)
	d.slaveReg++
	bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0WrMask, op)

	t := time.NewTimer(byteTimeout)
	defer t.Stop()
	select {
	case <-d.done:
	case <-t.C:
		bus.Write(regI2CMControl0, regI2CMControl0SWReset)
		return hdmi.ErrTimeout
	}

	if d.stat.Load()&regMainUnit1I2CMNack != 0 {
		bus.Write(regI2CMControl0, regI2CMControl0SWReset)
		return hdmi.ErrBusError
	}

	return nil
}

// complete releases the byte operation waiting in xfer, if any. It never
// blocks.
func (d *DDC) complete(stat uint32) {
	d.stat.Store(stat)
	select {
	case d.done <- struct{}{}:
	default:
	}
}
