package dwhdmiqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oxplot/go-hdmi"
	"github.com/oxplot/go-hdmi/ddc"
)

const (
	hdmi14MaxTMDSClk  = 340000000 // above this scrambling is required
	hdmi20MaxTMDSRate = 600000000

	scdcMinSourceVersion = 1

	scrambPollDelay = 3 * time.Second
)

// Phase is the lifecycle phase of the link.
type Phase uint8

// Link phases. The only valid sequence is Disabled, Enabling, Enabled,
// Disabling and back to Disabled.
const (
	PhaseDisabled Phase = iota
	PhaseEnabling
	PhaseEnabled
	PhaseDisabling
)

func (p Phase) String() string {
	switch p {
	case PhaseDisabled:
		return "disabled"
	case PhaseEnabling:
		return "enabling"
	case PhaseEnabled:
		return "enabled"
	case PhaseDisabling:
		return "disabling"
	default:
		return "INVALID"
	}
}

// next returns the phase p may move to.
func (p Phase) next() Phase {
	return (p + 1) % 4
}

// Mode is the operating mode of an enabled link.
type Mode uint8

// Operating modes.
const (
	ModeDVI Mode = iota
	ModeHDMI
)

func (m Mode) String() string {
	if m == ModeHDMI {
		return "HDMI"
	}
	return "DVI"
}

// Scrambling is the state of the scrambling negotiation.
type Scrambling uint8

// Scrambling states.
const (
	ScramblingOff Scrambling = iota
	ScramblingNegotiating
	ScramblingOn
)

func (s Scrambling) String() string {
	switch s {
	case ScramblingOff:
		return "off"
	case ScramblingNegotiating:
		return "negotiating"
	case ScramblingOn:
		return "on"
	default:
		return "INVALID"
	}
}

// LinkStatus is a snapshot of the link state.
type LinkStatus struct {
	Phase        Phase
	Mode         Mode
	Scrambling   Scrambling
	TMDSCharRate uint64
}

// link holds the state shared by the lifecycle calls, detection and the
// scrambling check. A connector is bound, and scrambling can be anything but
// off, only while phase isn't PhaseDisabled; setPhase enforces it.
type link struct {
	mu     sync.Mutex
	status LinkStatus
	conn   hdmi.Connector

	// Read locked by Detect while it may use conn. Disable write locks it
	// once in PhaseDisabling and holds it until the connector is released.
	use sync.RWMutex

	// Re-verifies scrambling on the sink. Never waited on with mu held.
	work *delayedWork
}

// setPhase moves the link to p. It must be called with mu held.
func (l *link) setPhase(p Phase) error {
	if l.status.Phase.next() != p {
		return fmt.Errorf("%w: %s to %s", hdmi.ErrInvalidTransition, l.status.Phase, p)
	}
	l.status.Phase = p
	if p == PhaseDisabled {
		l.status = LinkStatus{}
		l.conn = nil
	}
	return nil
}

// setScrambling records the scrambling state. It must be called with mu
// held and is ignored once the link is disabled.
func (l *link) setScrambling(s Scrambling) {
	if l.status.Phase != PhaseDisabled {
		l.status.Scrambling = s
	}
}

// snapshot returns the bound connector and the scrambling state. The
// connector is nil once a disable has started.
func (l *link) snapshot() (hdmi.Connector, Scrambling) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status.Phase == PhaseDisabling {
		return nil, l.status.Scrambling
	}
	return l.conn, l.status.Scrambling
}

// Status returns a snapshot of the link state.
func (tx *TX) Status() LinkStatus {
	tx.link.mu.Lock()
	defer tx.link.mu.Unlock()
	return tx.link.status
}

// Enable brings the link up for the sink behind conn at the given TMDS
// character rate. It selects HDMI or DVI from the sink capabilities,
// negotiates scrambling when the rate requires it, and asks conn to push the
// current info-frames.
//
// Bring-up is best effort: failures past the state check are reported but
// nothing is rolled back, the framework is expected to retry by disabling and
// enabling again.
func (tx *TX) Enable(conn hdmi.Connector, tmdsCharRate uint64) error {
	if conn == nil {
		return hdmi.ErrNoConnector
	}

	l := &tx.link
	l.mu.Lock()
	if err := l.setPhase(PhaseEnabling); err != nil {
		l.mu.Unlock()
		return err
	}
	l.conn = conn
	l.status.TMDSCharRate = tmdsCharRate
	info := conn.DisplayInfo()
	if info.IsHDMI {
		l.status.Mode = ModeHDMI
	} else {
		l.status.Mode = ModeDVI
	}
	l.mu.Unlock()

	var opMode uint32
	if info.IsHDMI {
		tx.debugf("enable mode=HDMI rate=%d", tmdsCharRate)
		if tmdsCharRate > hdmi14MaxTMDSClk {
			tx.enableScrambling(info)
		}
	} else {
		tx.debugf("enable mode=DVI")
		opMode = regLinkConfig0OpmDVI
	}

	phyErr := tx.phy.Init()
	if phyErr != nil {
		tx.errorf("phy init: %v", phyErr)
	}

	tx.bus.UpdateBits(regHDCP2LogicConfig0, regHDCP2LogicConfig0Bypass, regHDCP2LogicConfig0Bypass)
	tx.bus.UpdateBits(regLinkConfig0, regLinkConfig0OpmDVI, opMode)

	l.mu.Lock()
	err := l.setPhase(PhaseEnabled)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	return errors.Join(phyErr, conn.UpdateInfoframes())
}

// Disable tears the link down. It waits for a running scrambling check and
// for detections using the connector to return before releasing it.
func (tx *TX) Disable() error {
	l := &tx.link
	l.mu.Lock()
	if err := l.setPhase(PhaseDisabling); err != nil {
		l.mu.Unlock()
		return err
	}
	conn := l.conn
	scramb := l.status.Scrambling
	l.setScrambling(ScramblingOff)
	l.mu.Unlock()

	l.use.Lock()
	defer l.use.Unlock()

	if scramb != ScramblingOff {
		tx.disableScrambling(conn)
	}

	l.mu.Lock()
	err := l.setPhase(PhaseDisabled)
	l.mu.Unlock()

	tx.phy.Disable()
	return err
}

// Detect polls the hot-plug state. When a sink is connected and the link is
// up, the sink EDID is read and published to the connector, and the link is
// reset if scrambling should be on but the sink doesn't report it.
//
// ctx is passed on to Connector.ResetLink. The returned status is the raw
// hot-plug state. A Disable started meanwhile stops further connector calls
// and waits for Detect to return.
func (tx *TX) Detect(ctx context.Context) hdmi.ConnectorStatus {
	status := tx.phy.ReadHPD()

	l := &tx.link
	l.use.RLock()
	defer l.use.RUnlock()

	conn, scramb := l.snapshot()
	tx.debugf("detect conn=%s scramb=%s", status, scramb)

	if scramb != ScramblingOff {
		l.work.cancelSync()
	}

	if status == hdmi.StatusDisconnected || conn == nil {
		return status
	}

	tx.debugf("reading DDC")
	edid, err := ddc.ReadEDID(tx.ddc)
	if err != nil {
		tx.debugf("failed to read edid: %v", err)
		edid = nil
	}
	if conn, _ = l.snapshot(); conn == nil {
		return status
	}
	conn.UpdateEDID(edid)
	if edid == nil {
		return status
	}

	if conn, scramb = l.snapshot(); conn == nil || scramb == ScramblingOff {
		return status
	}
	if !conn.DisplayInfo().SupportsScrambling() {
		tx.debugf("scrambling not supported")
		return status
	}
	if tx.scdc.ScramblingStatus() {
		tx.debugf("scrambling already enabled")
		return status
	}

	if conn, _ = l.snapshot(); conn == nil {
		return status
	}
	tx.debugf("reset link")
	if err := conn.ResetLink(ctx); err != nil {
		tx.debugf("reset link: %v", err)
	}

	return status
}

// ReadEDID reads the EDID of the attached sink over the DDC bus.
func (tx *TX) ReadEDID() ([]byte, error) {
	edid, err := ddc.ReadEDID(tx.ddc)
	if err != nil {
		tx.debugf("failed to get edid: %v", err)
	}
	return edid, err
}

// TMDSCharRateValid returns hdmi.ModeClockHigh if rate, in Hz, is above what
// the controller can output.
func (tx *TX) TMDSCharRateValid(rate uint64) hdmi.ModeStatus {
	if rate > hdmi20MaxTMDSRate {
		tx.debugf("unsupported TMDS char rate: %d", rate)
		return hdmi.ModeClockHigh
	}
	return hdmi.ModeOK
}

func (tx *TX) enableScrambling(info hdmi.DisplayInfo) {
	if !info.SupportsScrambling() {
		return
	}

	l := &tx.link
	l.mu.Lock()
	l.setScrambling(ScramblingNegotiating)
	l.mu.Unlock()

	ver, err := tx.scdc.SinkVersion()
	if err != nil {
		tx.debugf("read scdc sink version: %v", err)
	}
	if err := tx.scdc.SetSourceVersion(min(ver, scdcMinSourceVersion)); err != nil {
		tx.debugf("write scdc source version: %v", err)
	}

	tx.setScrambling()
	tx.bus.Write(regScrambConfig0, 1)

	l.mu.Lock()
	l.setScrambling(ScramblingOn)
	l.mu.Unlock()
}

// setScrambling requests the high clock ratio and scrambling from the sink
// and schedules a check that it took effect.
func (tx *TX) setScrambling() {
	tx.debugf("set scrambling")

	if err := tx.scdc.SetHighTMDSClockRatio(true); err != nil {
		tx.debugf("set high tmds clock ratio: %v", err)
	}
	if err := tx.scdc.SetScrambling(true); err != nil {
		tx.debugf("set scrambling: %v", err)
	}

	tx.link.work.schedule(tx.pollDelay)
}

func (tx *TX) disableScrambling(conn hdmi.Connector) {
	tx.debugf("disable scrambling")

	tx.link.work.cancelSync()

	tx.bus.Write(regScrambConfig0, 0)

	if conn.Status() != hdmi.StatusDisconnected {
		if err := tx.scdc.SetScrambling(false); err != nil {
			tx.debugf("clear scrambling: %v", err)
		}
		if err := tx.scdc.SetHighTMDSClockRatio(false); err != nil {
			tx.debugf("clear high tmds clock ratio: %v", err)
		}
	}
}

// scrambWork re-requests scrambling while the sink doesn't report it active.
func (tx *TX) scrambWork() {
	if _, scramb := tx.link.snapshot(); scramb == ScramblingOff {
		return
	}
	if !tx.scdc.ScramblingStatus() {
		tx.setScrambling()
	}
}
