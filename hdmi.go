// Package hdmi defines high level interfaces and types shared by HDMI
// transmitter drivers and the display framework driving them.
package hdmi

import (
	"context"
	"errors"
)

// ConnectorStatus is the hot-plug state of a display sink.
type ConnectorStatus uint8

// Connector statuses.
const (
	StatusUnknown ConnectorStatus = iota
	StatusConnected
	StatusDisconnected
)

func (s ConnectorStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "INVALID"
	}
}

// ModeStatus is the verdict of a mode validation check.
type ModeStatus uint8

// Mode statuses.
const (
	ModeOK ModeStatus = iota
	ModeClockHigh
)

func (m ModeStatus) String() string {
	switch m {
	case ModeOK:
		return "ok"
	case ModeClockHigh:
		return "clock too high"
	default:
		return "INVALID"
	}
}

// DisplayInfo holds the subset of the sink capabilities a transmitter needs to
// pick its operating mode. It is normally derived from the sink EDID by the
// display framework.
type DisplayInfo struct {
	// IsHDMI is false for DVI sinks.
	IsHDMI bool

	SCDC struct {
		// Supported is true if the sink exposes the SCDC register block.
		Supported bool

		// Scrambling is true if the sink supports scrambling.
		Scrambling bool

		// LowRateScrambling is true if the sink supports scrambling below 340
		// MHz. Informational only.
		LowRateScrambling bool
	}
}

// SupportsScrambling returns true if scrambling can be negotiated with the
// sink.
func (d DisplayInfo) SupportsScrambling() bool {
	return d.IsHDMI && d.SCDC.Supported && d.SCDC.Scrambling
}

// Connector is the display framework side of a transmitter output. A
// transmitter holds a Connector only between Enable and Disable.
type Connector interface {
	// Status returns the last known connection status of the connector.
	Status() ConnectorStatus

	// DisplayInfo returns the capabilities of the sink currently attached.
	DisplayInfo() DisplayInfo

	// UpdateEDID publishes sink identification data read by the transmitter.
	// A nil slice means reading failed and any previous data is stale.
	UpdateEDID(edid []byte)

	// UpdateInfoframes asks the framework to push the current info-frames to
	// the transmitter, through ClearInfoframe and WriteInfoframe calls.
	UpdateInfoframes() error

	// ResetLink asks the framework to recheck the connector, tearing down and
	// re-establishing the output. It must not block on a Disable of the same
	// transmitter that is waiting for the caller.
	ResetLink(ctx context.Context) error
}

// PHY is the capability set of a physical layer the transmitter drives. The
// implementer carries whatever platform context it needs.
type PHY interface {
	// Init powers up and configures the PHY for the current mode.
	Init() error

	// Disable powers the PHY down.
	Disable()

	// ReadHPD returns the hot-plug detect state of the port.
	ReadHPD() ConnectorStatus
}

// HPDSetter is implemented by PHYs that need hot-plug detection configured
// when the transmitter hardware is (re-)initialized.
type HPDSetter interface {
	SetupHPD()
}

// PHYFuncs is an adapter to allow the use of a table of ordinary functions as
// PHY. Init, Disable and ReadHPD are mandatory, SetupHPD is optional.
type PHYFuncs struct {
	InitFunc     func() error
	DisableFunc  func()
	ReadHPDFunc  func() ConnectorStatus
	SetupHPDFunc func()
}

// Validate returns ErrMissingPHY if a mandatory function is nil.
func (p *PHYFuncs) Validate() error {
	if p == nil || p.InitFunc == nil || p.DisableFunc == nil || p.ReadHPDFunc == nil {
		return ErrMissingPHY
	}
	return nil
}

// Init implements PHY.
func (p *PHYFuncs) Init() error { return p.InitFunc() }

// Disable implements PHY.
func (p *PHYFuncs) Disable() { p.DisableFunc() }

// ReadHPD implements PHY.
func (p *PHYFuncs) ReadHPD() ConnectorStatus { return p.ReadHPDFunc() }

// SetupHPD implements HPDSetter. It does nothing if SetupHPDFunc is nil.
func (p *PHYFuncs) SetupHPD() {
	if p.SetupHPDFunc != nil {
		p.SetupHPDFunc()
	}
}

var (
	// ErrNotSupported is returned for transfers the DDC controller cannot
	// emulate, such as empty messages or DDC/CI.
	ErrNotSupported = errors.New("hdmi: operation not supported")

	// ErrTimeout is returned when a DDC byte is not acknowledged by the
	// controller in time.
	ErrTimeout = errors.New("hdmi: ddc transfer timed out")

	// ErrBusError is returned when the sink NACKs a DDC byte.
	ErrBusError = errors.New("hdmi: ddc bus error")

	// ErrInvalidInfoframe is returned when an info-frame has an unexpected
	// length.
	ErrInvalidInfoframe = errors.New("hdmi: invalid infoframe")

	// ErrMissingPHY is returned when a PHY capability set is incomplete.
	ErrMissingPHY = errors.New("hdmi: missing phy operations")

	// ErrNoConnector is returned when Enable is called without a connector.
	ErrNoConnector = errors.New("hdmi: no connector")

	// ErrInvalidTransition is returned when a lifecycle call does not match
	// the current link state.
	ErrInvalidTransition = errors.New("hdmi: invalid link transition")
)
