// Package irq delivers hardware interrupts to user space drivers.
//
// On Linux, interrupts are taken from a UIO device node (/dev/uioN) bound to
// the controller. The handler runs on the goroutine calling Run, one
// interrupt at a time.
package irq

import "errors"

// Handler services an interrupt. It returns false if the device had nothing
// pending, which happens on shared lines.
type Handler func() bool

var (
	errHangup = errors.New("irq: device hung up")
	errShort  = errors.New("irq: short read of event count")
)
