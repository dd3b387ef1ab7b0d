package dwhdmiqp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oxplot/go-hdmi"
	"github.com/oxplot/go-hdmi/regbus"
)

// fakeHW emulates the controller registers, its I2C master and the DDC
// devices of an attached sink.
type fakeHW struct {
	mem *regbus.Memory
	tx  *TX

	// irqDelay, if non zero, raises the interrupt from another goroutine
	// after the delay instead of synchronously.
	irqDelay time.Duration

	mu     sync.Mutex
	devs   map[uint16][]byte
	seg    int
	mute   bool
	ops    []ddcOp
	writes []regWrite

	// onOp, if set, is called for every byte operation before it completes.
	onOp func(ddcOp)
}

type ddcOp struct {
	slave uint16
	reg   uint8
	op    uint32
}

type regWrite struct {
	off, v uint32
}

func newFakeHW(t *testing.T) *fakeHW {
	t.Helper()
	mem, err := regbus.NewMemory(RegisterLayout)
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHW{mem: mem, devs: map[uint16][]byte{}}
	mem.OnWrite = h.onWrite
	return h
}

func (h *fakeHW) onWrite(off, v uint32) {
	h.mu.Lock()
	h.writes = append(h.writes, regWrite{off, v})
	h.mu.Unlock()

	switch off {
	case regMainUnit1IntClear:
		h.mem.Poke(regMainUnit1IntStatus, h.mem.Peek(regMainUnit1IntStatus)&^v)
	case regI2CMControl0:
		if v&regI2CMControl0SWReset != 0 {
			h.mem.Poke(regI2CMIfControl0, h.mem.Peek(regI2CMIfControl0)&^regI2CMIfControl0WrMask)
		}
	case regMainUnit1IntMaskN:
		if v&i2cIRQs != 0 {
			h.mu.Lock()
			h.seg = 0
			h.mu.Unlock()
		}
	case regI2CMIfControl0:
		if op := v & regI2CMIfControl0WrMask; op != 0 {
			h.strobe(v, op)
		}
	}
}

func (h *fakeHW) strobe(ctl, op uint32) {
	o := ddcOp{
		slave: uint16((ctl & regI2CMIfControl0Slave) >> regI2CMIfControl0SlavePos),
		reg:   uint8((ctl & regI2CMIfControl0Addr) >> regI2CMIfControl0AddrPos),
		op:    op,
	}

	h.mu.Lock()
	h.ops = append(h.ops, o)
	hook := h.onOp
	h.mu.Unlock()
	if hook != nil {
		hook(o)
	}

	h.mu.Lock()
	if h.mute {
		h.mu.Unlock()
		return
	}
	stat := uint32(regMainUnit1I2CMOpDone)
	dev, ok := h.devs[o.slave]
	switch {
	case !ok:
		stat = regMainUnit1I2CMNack
	case op == regI2CMIfControl0Write:
		dev[o.reg] = byte(h.mem.Peek(regI2CMIfWrData03))
	default:
		if op == regI2CMIfControl0Ext {
			h.seg = int((h.mem.Peek(regI2CMIfControl1) & regI2CMIfControl1SegPtr) >> regI2CMIfControl1SegPtrPos)
		}
		var b byte
		if i := h.seg*256 + int(o.reg); i < len(dev) {
			b = dev[i]
		}
		h.mem.Poke(regI2CMIfRdData03, uint32(b))
	}
	h.mu.Unlock()

	h.mem.Poke(regMainUnit1IntStatus, h.mem.Peek(regMainUnit1IntStatus)|stat)
	if h.irqDelay > 0 {
		time.AfterFunc(h.irqDelay, func() { h.tx.HandleIRQ() })
		return
	}
	h.tx.HandleIRQ()
}

// addDev attaches a DDC device with the given memory, at least 256 bytes.
func (h *fakeHW) addDev(slave uint16, data []byte) {
	if len(data) < 256 {
		data = append(data, make([]byte, 256-len(data))...)
	}
	h.mu.Lock()
	h.devs[slave] = data
	h.mu.Unlock()
}

func (h *fakeHW) devReg(slave uint16, reg uint8) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.devs[slave][reg]
}

func (h *fakeHW) setDevReg(slave uint16, reg uint8, v byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devs[slave][reg] = v
}

func (h *fakeHW) setMute(mute bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mute = mute
}

func (h *fakeHW) setOnOp(fn func(ddcOp)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onOp = fn
}

// reset forgets the recorded register writes and byte operations.
func (h *fakeHW) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
	h.writes = nil
}

func (h *fakeHW) recorded() ([]ddcOp, []regWrite) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ddcOp(nil), h.ops...), append([]regWrite(nil), h.writes...)
}

// fakePHY counts calls and reports a settable hot-plug state.
type fakePHY struct {
	mu       sync.Mutex
	hpd      hdmi.ConnectorStatus
	initErr  error
	inits    int
	disables int
	setups   int
}

func (p *fakePHY) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return p.initErr
}

func (p *fakePHY) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disables++
}

func (p *fakePHY) ReadHPD() hdmi.ConnectorStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hpd
}

func (p *fakePHY) SetupHPD() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setups++
}

func (p *fakePHY) setHPD(s hdmi.ConnectorStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hpd = s
}

// fakeConn is a display framework connector recording the calls it gets.
type fakeConn struct {
	info   hdmi.DisplayInfo
	status hdmi.ConnectorStatus

	mu         sync.Mutex
	edid       []byte
	edidCalls  int
	infoframes int
	resets     int
}

func (c *fakeConn) Status() hdmi.ConnectorStatus  { return c.status }
func (c *fakeConn) DisplayInfo() hdmi.DisplayInfo { return c.info }

func (c *fakeConn) UpdateEDID(edid []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edid = edid
	c.edidCalls++
}

func (c *fakeConn) UpdateInfoframes() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infoframes++
	return nil
}

func (c *fakeConn) ResetLink(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	return nil
}

func hdmiConn() *fakeConn {
	c := &fakeConn{status: hdmi.StatusConnected}
	c.info.IsHDMI = true
	c.info.SCDC.Supported = true
	c.info.SCDC.Scrambling = true
	return c
}

func newTestTX(t *testing.T) (*TX, *fakeHW, *fakePHY) {
	t.Helper()
	h := newFakeHW(t)
	phy := &fakePHY{hpd: hdmi.StatusConnected}
	tx, err := New(Config{Bus: h.mem, PHY: phy})
	if err != nil {
		t.Fatal(err)
	}
	h.tx = tx
	tx.pollDelay = time.Hour
	h.reset()
	return tx, h, phy
}
