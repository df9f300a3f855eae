package transport

import "errors"

var (
	// ErrWouldBlock means the operation could not complete right now: the
	// send buffer is full or no frame has arrived yet. It is flow control,
	// not a failure; retry after the channel fd reports writable or
	// readable respectively.
	ErrWouldBlock = errors.New("transport: operation would block")

	// ErrPeerClosed means the other endpoint of the channel has been
	// released. No further I/O on this channel will succeed.
	ErrPeerClosed = errors.New("transport: peer endpoint closed")

	// ErrInvalidArgument means the caller supplied out-of-range values,
	// such as a pointer count outside [1, MaxPointers]. Nothing was sent.
	ErrInvalidArgument = errors.New("transport: invalid argument")

	// ErrBadFrame means a received frame failed validation or arrived
	// where the protocol reserves the slot for another kind. The channel
	// should be treated as broken.
	ErrBadFrame = errors.New("transport: malformed frame")
)
