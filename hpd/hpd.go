// Package hpd reads the hot-plug detect signal of a display port from a GPIO.
//
// A Pin can be used as the hot-plug part of a PHY: it implements ReadHPD and
// SetupHPD.
package hpd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/oxplot/go-hdmi"
)

// Longest wait for an edge before checking for cancellation.
const edgeTimeout = 100 * time.Millisecond

// Pin is a hot-plug detect input.
type Pin struct {
	pin       gpio.PinIn
	activeLow bool

	mu  sync.Mutex
	err error // from the last SetupHPD
}

// New returns the hot-plug detect signal on pin. If activeLow is set, a low
// level means a sink is connected.
func New(pin gpio.PinIn, activeLow bool) *Pin {
	return &Pin{pin: pin, activeLow: activeLow}
}

func (p *Pin) String() string {
	return "hpd(" + p.pin.String() + ")"
}

// ReadHPD returns the current connection state.
func (p *Pin) ReadHPD() hdmi.ConnectorStatus {
	if bool(p.pin.Read()) != p.activeLow {
		return hdmi.StatusConnected
	}
	return hdmi.StatusDisconnected
}

// SetupHPD configures the pin as an input with edge detection on both
// edges. Errors are kept for Err.
func (p *Pin) SetupHPD() {
	err := p.pin.In(gpio.PullNoChange, gpio.BothEdges)
	if err != nil {
		err = fmt.Errorf("hpd: %s: %w", p.pin, err)
	}
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Err returns the error of the last SetupHPD call.
func (p *Pin) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Watch calls fn every time the connection state changes and stays stable
// for debounce. It returns when ctx is done, with ctx.Err().
func (p *Pin) Watch(ctx context.Context, debounce time.Duration, fn func(hdmi.ConnectorStatus)) error {
	p.SetupHPD()
	if err := p.Err(); err != nil {
		return err
	}

	last := p.ReadHPD()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.pin.WaitForEdge(edgeTimeout) {
			continue
		}

		// Sinks bounce the line while the plug is being seated.
		if debounce > 0 {
			t := time.NewTimer(debounce)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		if s := p.ReadHPD(); s != last {
			last = s
			fn(s)
		}
	}
}
