// Package transport moves input events between processes over a connected
// socket pair. A Channel is one endpoint; the Publisher (dispatcher side)
// sends key and motion frames through it and reads back finished signals,
// while the Consumer (application side) reads event frames and acknowledges
// each one. All I/O is non-blocking: ErrWouldBlock is the backpressure
// signal, and callers drive retries from readiness notifications on the
// channel's fd.
package transport

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// socketBufferSize bounds each direction's kernel buffer. Together with
// non-blocking sends this is the transport's flow control: a publisher that
// outruns its consumer hits ErrWouldBlock instead of queueing unboundedly.
const socketBufferSize = 32 * 1024

// Channel is one endpoint of a connected, bidirectional, datagram-ordered
// socket pair. It moves whole frames and nothing else: no buffering, no
// retries, no interpretation.
//
// A Channel is shared-owned. Every holder beyond the first must Retain it,
// and every holder must Close it exactly once; the fd is closed when the
// last reference is released. Concurrent Send calls (or concurrent Receive
// calls) on one Channel are not serialized here; callers needing that must
// lock around them. A Send may always run concurrently with a Receive.
type Channel struct {
	name string
	fd   int
	refs atomic.Int32
}

func newChannel(name string, fd int) *Channel {
	c := &Channel{name: name, fd: fd}
	c.refs.Store(1)
	return c
}

// OpenPair creates a connected pair of channels. Frames written to either
// side arrive, in order, at the other. The name is diagnostic only; both
// endpoints carry it.
func OpenPair(name string) (server, client *Channel, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX,
		unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: open channel pair %q: %w", name, err)
	}
	for _, fd := range fds {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferSize); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, nil, fmt.Errorf("transport: open channel pair %q: %w", name, err)
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferSize); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, nil, fmt.Errorf("transport: open channel pair %q: %w", name, err)
		}
	}
	server = newChannel(name+" (server)", fds[0])
	client = newChannel(name+" (client)", fds[1])
	return server, client, nil
}

// Name returns the diagnostic name given to OpenPair.
func (c *Channel) Name() string { return c.name }

// Fd returns the endpoint's descriptor so callers can poll it for
// readability or writability. Callers must not close it directly; the
// Channel owns it.
func (c *Channel) Fd() int { return c.fd }

// Retain adds a reference for a new holder and returns the channel.
func (c *Channel) Retain() *Channel {
	c.refs.Add(1)
	return c
}

// Close releases one reference. The underlying descriptor is closed when
// the last reference goes; the peer then observes ErrPeerClosed.
func (c *Channel) Close() error {
	if c.refs.Add(-1) != 0 {
		return nil
	}
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("transport: close channel %q: %w", c.name, err)
	}
	return nil
}

// Send transmits one whole frame to the peer.
//
// On ErrWouldBlock the kernel buffer is full and nothing was written; the
// identical message can be retried once the fd reports writable (in this
// protocol, after the consumer drains events and acknowledges them). On
// ErrPeerClosed the other endpoint is gone for good. Any other error means
// the channel is broken.
func (c *Channel) Send(msg *Message) error {
	var buf [maxFrameSize]byte
	n := msg.encode(buf[:])
	for {
		sent, err := unix.SendmsgN(c.fd, buf[:n], nil, nil,
			unix.MSG_DONTWAIT|unix.MSG_NOSIGNAL)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return ErrWouldBlock
		case unix.EPIPE, unix.ENOTCONN, unix.ECONNRESET:
			return ErrPeerClosed
		default:
			return fmt.Errorf("transport: channel %q send %v frame: %w", c.name, msg.Kind, err)
		}
		if sent != n {
			// Seqpacket writes are all-or-nothing; a short write means
			// the socket is no longer usable.
			return fmt.Errorf("%w: channel %q sent %d of %d bytes", ErrBadFrame, c.name, sent, n)
		}
		return nil
	}
}

// Receive reads one whole frame from the peer into msg.
//
// ErrWouldBlock means no frame is available yet; retry after the fd reports
// readable. ErrPeerClosed means the other endpoint is gone and everything
// it sent has been drained. ErrBadFrame means the peer sent bytes that do
// not form a valid frame; nothing from such a frame is acted on and the
// channel should be treated as broken.
func (c *Channel) Receive(msg *Message) error {
	var buf [maxFrameSize]byte
	for {
		n, _, err := unix.Recvfrom(c.fd, buf[:], unix.MSG_DONTWAIT)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return ErrWouldBlock
		case unix.ECONNRESET, unix.ENOTCONN:
			return ErrPeerClosed
		default:
			return fmt.Errorf("transport: channel %q receive: %w", c.name, err)
		}
		if n == 0 {
			return ErrPeerClosed
		}
		msg.decode(buf[:n])
		if !msg.isValid(n) {
			return fmt.Errorf("%w: channel %q received %d bytes declaring kind %d",
				ErrBadFrame, c.name, n, uint32(msg.Kind))
		}
		return nil
	}
}
