// Package dwhdmiqp implements a driver for the Synopsys DesignWare HDMI QP
// transmitter controller.
//
// The driver covers link bring-up, SCDC scrambling negotiation, info-frame
// transmission and the controller's I2C master used as the DDC bus. The
// register bus, the PHY and interrupt delivery are supplied by the platform:
// the interrupt line must be routed to HandleIRQ.
package dwhdmiqp

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/oxplot/go-hdmi"
	"github.com/oxplot/go-hdmi/regbus"
	"github.com/oxplot/go-hdmi/scdc"
)

// Config holds the bind time parameters of a transmitter. It's read once by
// New.
type Config struct {
	// Bus gives access to the controller registers, laid out as described by
	// RegisterLayout.
	Bus regbus.Bus

	// PHY drives the physical layer. If it has a Validate() error method, it
	// is called and must succeed.
	PHY hdmi.PHY

	// Name prefixes log lines. Defaults to "dw-hdmi-qp".
	Name string

	// Logger receives errors, and debug messages if Debug is set. Nil
	// discards everything.
	Logger *log.Logger
	Debug  bool
}

// TX is a DesignWare HDMI QP transmitter. It's the bridge the display
// framework drives through Enable, Disable and Detect.
type TX struct {
	bus   regbus.Bus
	phy   hdmi.PHY
	name  string
	log   *log.Logger
	debug bool

	ddc  *DDC
	scdc *scdc.Dev
	link link

	pollDelay time.Duration
}

var errNoBus = errors.New("dwhdmiqp: no register bus")

// New validates cfg, initializes the controller and returns a transmitter
// ready to be enabled. On error nothing is left attached to the hardware.
func New(cfg Config) (*TX, error) {
	if cfg.Bus == nil {
		return nil, errNoBus
	}
	if cfg.PHY == nil {
		return nil, hdmi.ErrMissingPHY
	}
	if v, ok := cfg.PHY.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	tx := &TX{
		bus:       cfg.Bus,
		phy:       cfg.PHY,
		name:      cfg.Name,
		log:       cfg.Logger,
		debug:     cfg.Debug,
		pollDelay: scrambPollDelay,
	}
	if tx.name == "" {
		tx.name = "dw-hdmi-qp"
	}
	if tx.log == nil {
		tx.log = log.New(io.Discard, "", 0)
	}
	tx.ddc = newDDC(tx)
	tx.scdc = scdc.New(tx.ddc)
	tx.link.work = newDelayedWork(tx.scrambWork)

	tx.initHW()
	tx.log.Printf("%s: registered %s I2C bus driver", tx.name, tx.ddc)

	return tx, nil
}

// DDC returns the I2C controller of the transmitter.
func (tx *TX) DDC() *DDC {
	return tx.ddc
}

// Resume re-initializes the controller after its power domain was cut, for
// example on system resume.
func (tx *TX) Resume() {
	tx.initHW()
}

func (tx *TX) initHW() {
	tx.bus.Write(regMainUnit0IntMaskN, 0)
	tx.bus.Write(regMainUnit1IntMaskN, 0)
	tx.bus.Write(regTimerBaseConfig0, timerBaseHz)

	// Software reset

	tx.bus.Write(regI2CMControl0, regI2CMControl0SWReset)

	tx.bus.Write(regI2CMFMSCLConfig0, i2cmFMSCLTimes)
	tx.bus.UpdateBits(regI2CMIfControl0, regI2CMIfControl0FMEn, 0)

	// Clear DONE and ERROR interrupts

	tx.bus.Write(regMainUnit1IntClear, regMainUnit1I2CMOpDone|regMainUnit1I2CMNack)

	if s, ok := tx.phy.(hdmi.HPDSetter); ok {
		s.SetupHPD()
	}
}

func (tx *TX) debugf(format string, args ...any) {
	if tx.debug {
		tx.log.Printf(tx.name+": "+format, args...)
	}
}

func (tx *TX) errorf(format string, args ...any) {
	tx.log.Printf(tx.name+": "+format, args...)
}
