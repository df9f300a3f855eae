package transport

import (
	"fmt"

	"github.com/mithrel/inputwire/pkg/input"
)

// Publisher is the producer side of a channel: it turns discrete event
// fields into wire frames and reads back the consumer's finished signals.
//
// Acknowledgments are positional. The channel is strictly ordered, so the
// Nth finished signal received acknowledges the Nth event published;
// ReceiveFinishedSignal must be called in publish order. The Publisher
// keeps no queue of pending events — retrying after ErrWouldBlock is the
// caller's job.
type Publisher struct {
	channel *Channel
}

// NewPublisher wraps a channel. The publisher takes over the caller's
// reference; Close releases it.
func NewPublisher(channel *Channel) *Publisher {
	return &Publisher{channel: channel}
}

// Channel returns the underlying channel.
func (p *Publisher) Channel() *Channel { return p.channel }

// Close releases the publisher's channel reference.
func (p *Publisher) Close() error { return p.channel.Close() }

// PublishKeyEvent sends one key event. Outcomes are the channel's send
// outcomes, unchanged: nil, ErrWouldBlock (retry with the same arguments
// later), ErrPeerClosed, or a channel fault.
func (p *Publisher) PublishKeyEvent(
	deviceID, source, action, flags, keyCode, scanCode, metaState, repeatCount int32,
	downTime, eventTime int64,
) error {
	msg := Message{
		Kind: KindKey,
		Key: KeyBody{
			EventTime:   eventTime,
			DeviceID:    deviceID,
			Source:      source,
			Action:      action,
			Flags:       flags,
			KeyCode:     keyCode,
			ScanCode:    scanCode,
			MetaState:   metaState,
			RepeatCount: repeatCount,
			DownTime:    downTime,
		},
	}
	return p.channel.Send(&msg)
}

// PublishMotionEvent sends one motion event carrying the first
// pointerCount entries of props and coords. A pointerCount outside
// [1, input.MaxPointers], or slices shorter than pointerCount, is rejected
// with ErrInvalidArgument before any I/O.
func (p *Publisher) PublishMotionEvent(
	deviceID, source, action, flags, edgeFlags, metaState, buttonState int32,
	xOffset, yOffset, xPrecision, yPrecision float32,
	downTime, eventTime int64,
	pointerCount int,
	props []input.PointerProperties,
	coords []input.PointerCoords,
) error {
	if pointerCount < 1 || pointerCount > input.MaxPointers {
		return fmt.Errorf("%w: pointer count %d outside [1, %d]",
			ErrInvalidArgument, pointerCount, input.MaxPointers)
	}
	if len(props) < pointerCount || len(coords) < pointerCount {
		return fmt.Errorf("%w: %d pointer records declared, %d properties and %d coords supplied",
			ErrInvalidArgument, pointerCount, len(props), len(coords))
	}
	msg := Message{
		Kind: KindMotion,
		Motion: MotionBody{
			EventTime:    eventTime,
			DeviceID:     deviceID,
			Source:       source,
			Action:       action,
			Flags:        flags,
			MetaState:    metaState,
			ButtonState:  buttonState,
			EdgeFlags:    edgeFlags,
			DownTime:     downTime,
			XOffset:      xOffset,
			YOffset:      yOffset,
			XPrecision:   xPrecision,
			YPrecision:   yPrecision,
			PointerCount: uint32(pointerCount),
		},
	}
	for i := 0; i < pointerCount; i++ {
		msg.Motion.Pointers[i] = Pointer{Properties: props[i], Coords: coords[i]}
	}
	return p.channel.Send(&msg)
}

// ReceiveFinishedSignal reads the next finished signal and reports whether
// the consumer handled the corresponding event. Only finished frames travel
// in this direction; any other kind means the channel is broken.
func (p *Publisher) ReceiveFinishedSignal() (handled bool, err error) {
	var msg Message
	if err := p.channel.Receive(&msg); err != nil {
		return false, err
	}
	if msg.Kind != KindFinished {
		return false, fmt.Errorf("%w: channel %q: %v frame where a finished signal was expected",
			ErrBadFrame, p.channel.Name(), msg.Kind)
	}
	return msg.Finished.Handled, nil
}
