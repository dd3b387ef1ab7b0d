//go:build linux

package irq

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Poll timeout in ms. Bounds the time Run takes to notice cancellation.
const pollTimeout = 100

// UIO is an interrupt line exposed through the Linux userspace I/O
// framework. Reading the device blocks until the next interrupt and returns
// the total event count; writing 1 unmasks the line again.
type UIO struct {
	name string
	fd   int

	events    atomic.Uint32
	unhandled atomic.Uint64
}

// OpenUIO opens the UIO device at path, for example "/dev/uio0".
func OpenUIO(path string) (*UIO, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("irq: open %s: %w", path, err)
	}
	return newUIO(path, fd), nil
}

func newUIO(name string, fd int) *UIO {
	return &UIO{name: name, fd: fd}
}

func (u *UIO) String() string {
	return u.name
}

func (u *UIO) unmask() error {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], 1)
	if _, err := unix.Write(u.fd, b[:]); err != nil {
		return fmt.Errorf("irq: %s: unmask: %w", u.name, err)
	}
	return nil
}

// Run unmasks the interrupt and calls h for every interrupt until ctx is
// done or the device fails. It returns ctx.Err() on cancellation.
func (u *UIO) Run(ctx context.Context, h Handler) error {
	if err := u.unmask(); err != nil {
		return err
	}

	fds := []unix.PollFd{{Fd: int32(u.fd), Events: unix.POLLIN}}
	var b [4]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, pollTimeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("irq: %s: poll: %w", u.name, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			return fmt.Errorf("%w: %s", errHangup, u.name)
		}

		n, err = unix.Read(u.fd, b[:])
		if err != nil {
			return fmt.Errorf("irq: %s: read: %w", u.name, err)
		}
		if n != len(b) {
			return fmt.Errorf("%w: %s", errShort, u.name)
		}
		u.events.Store(binary.NativeEndian.Uint32(b[:]))

		if !h() {
			u.unhandled.Add(1)
		}

		if err := u.unmask(); err != nil {
			return err
		}
	}
}

// Events returns the interrupt count reported by the kernel on the last
// wakeup.
func (u *UIO) Events() uint32 {
	return u.events.Load()
}

// Unhandled returns how many interrupts the handler didn't claim.
func (u *UIO) Unhandled() uint64 {
	return u.unhandled.Load()
}

// Close releases the device. Run must have returned.
func (u *UIO) Close() error {
	return unix.Close(u.fd)
}
