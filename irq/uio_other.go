//go:build !linux

package irq

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("irq: uio is only available on linux")

// UIO is an interrupt line exposed through the Linux userspace I/O
// framework.
type UIO struct{}

// OpenUIO always fails outside Linux.
func OpenUIO(path string) (*UIO, error) {
	return nil, errUnsupported
}

func (u *UIO) String() string                            { return "uio" }
func (u *UIO) Run(ctx context.Context, h Handler) error { return errUnsupported }
func (u *UIO) Events() uint32                            { return 0 }
func (u *UIO) Unhandled() uint64                         { return 0 }
func (u *UIO) Close() error                              { return nil }
