package transport

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// WaitMode selects which readiness to wait for.
type WaitMode int16

const (
	// Readable: a Receive that returned ErrWouldBlock can be retried.
	Readable WaitMode = unix.POLLIN
	// Writable: a Send that returned ErrWouldBlock can be retried.
	Writable WaitMode = unix.POLLOUT
)

// Wait blocks until the channel's fd reports the requested readiness, the
// peer hangs up, or the timeout elapses. A negative timeout waits forever.
// It returns ErrWouldBlock on timeout so retry loops can treat "still not
// ready" uniformly. A hangup returns nil; the next Send or Receive will
// classify it (Receive still drains frames buffered before the hangup).
//
// Wait is a convenience for simple callers and tests; an application with
// its own event loop should register Fd() there instead.
func Wait(c *Channel, mode WaitMode, timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}
	fds := []unix.PollFd{{Fd: int32(c.Fd()), Events: int16(mode)}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("transport: poll channel %q: %w", c.Name(), err)
		}
		if n == 0 {
			return ErrWouldBlock
		}
		return nil
	}
}
