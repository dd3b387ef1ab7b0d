package hdmi

import (
	"context"
	"fmt"
	"io"
)

// Logger is a passthrough connector that writes a textual description of the
// calls it receives from a transmitter to an io.Writer. It's mostly used for
// debugging purposes.
type Logger struct {
	w    io.Writer
	sep  string
	base Connector
}

// NewLogger creates a new logger writing to w and passing calls through to
// base. Line separator is written after each line of output. Some common
// values are "\n", "\r", "\r\n".
//
// Without a base, the logger reports a disconnected DVI sink and accepts
// every request.
func NewLogger(w io.Writer, lineSep string, base Connector) *Logger {
	return &Logger{
		w:    w,
		sep:  lineSep,
		base: base,
	}
}

// Status returns the status of the base connector.
func (l *Logger) Status() ConnectorStatus {
	if l.base != nil {
		return l.base.Status()
	}
	return StatusDisconnected
}

// DisplayInfo returns the sink capabilities of the base connector.
func (l *Logger) DisplayInfo() DisplayInfo {
	if l.base != nil {
		return l.base.DisplayInfo()
	}
	return DisplayInfo{}
}

// UpdateEDID writes out the size of the received EDID and passes it down.
func (l *Logger) UpdateEDID(edid []byte) {
	if edid == nil {
		fmt.Fprintf(l.w, "EDID unavailable%s", l.sep)
	} else {
		fmt.Fprintf(l.w, "Received EDID: %d bytes, %d extension blocks%s", len(edid), len(edid)/128-1, l.sep)
		if len(edid) >= 12 {
			m := uint16(edid[8])<<8 | uint16(edid[9])
			fmt.Fprintf(l.w, "  Manufacturer %c%c%c, product 0x%02x%02x%s",
				'@'+byte(m>>10&0x1f), '@'+byte(m>>5&0x1f), '@'+byte(m&0x1f), edid[11], edid[10], l.sep)
		}
	}
	if l.base != nil {
		l.base.UpdateEDID(edid)
	}
}

// UpdateInfoframes logs the request and passes it down.
func (l *Logger) UpdateInfoframes() error {
	fmt.Fprintf(l.w, "Info-frames update requested%s", l.sep)
	if l.base != nil {
		return l.base.UpdateInfoframes()
	}
	return nil
}

// ResetLink logs the request and passes it down.
func (l *Logger) ResetLink(ctx context.Context) error {
	fmt.Fprintf(l.w, "Link reset requested%s", l.sep)
	if l.base != nil {
		return l.base.ResetLink(ctx)
	}
	return nil
}
