package transport

import (
	"fmt"

	"github.com/mithrel/inputwire/pkg/input"
)

// Consumer is the application side of a channel: it turns inbound wire
// frames into event objects and closes the acknowledgment loop.
//
// SendFinishedSignal must be called once per consumed event, in consume
// order; the publisher matches finished signals to events by position.
type Consumer struct {
	channel *Channel
}

// NewConsumer wraps a channel. The consumer takes over the caller's
// reference; Close releases it.
func NewConsumer(channel *Channel) *Consumer {
	return &Consumer{channel: channel}
}

// Channel returns the underlying channel.
func (c *Consumer) Channel() *Channel { return c.channel }

// Close releases the consumer's channel reference.
func (c *Consumer) Close() error { return c.channel.Close() }

// Consume reads the next event frame and copies it into an event allocated
// by factory. Outcomes: a populated event; ErrWouldBlock (nothing to
// consume yet); ErrPeerClosed; the factory's allocation error (the channel
// stays usable, but the frame that triggered the allocation is gone); or
// ErrBadFrame for malformed frames and for finished frames, which never
// travel in this direction.
func (c *Consumer) Consume(factory input.EventFactory) (input.Event, error) {
	var msg Message
	if err := c.channel.Receive(&msg); err != nil {
		return nil, err
	}

	switch msg.Kind {
	case KindKey:
		ev, err := factory.NewKeyEvent()
		if err != nil {
			return nil, err
		}
		k := &msg.Key
		ev.Initialize(
			k.DeviceID, k.Source, k.Action, k.Flags,
			k.KeyCode, k.ScanCode, k.MetaState, k.RepeatCount,
			k.DownTime, k.EventTime,
		)
		return ev, nil

	case KindMotion:
		ev, err := factory.NewMotionEvent()
		if err != nil {
			return nil, err
		}
		mo := &msg.Motion
		count := int(mo.PointerCount)
		var props [input.MaxPointers]input.PointerProperties
		var coords [input.MaxPointers]input.PointerCoords
		for i := 0; i < count; i++ {
			props[i] = mo.Pointers[i].Properties
			coords[i] = mo.Pointers[i].Coords
		}
		ev.Initialize(
			mo.DeviceID, mo.Source, mo.Action, mo.Flags,
			mo.EdgeFlags, mo.MetaState, mo.ButtonState,
			mo.XOffset, mo.YOffset, mo.XPrecision, mo.YPrecision,
			mo.DownTime, mo.EventTime,
			count, props[:count], coords[:count],
		)
		return ev, nil

	default:
		// Receive validated the frame, so this can only be a finished
		// frame going the wrong way.
		return nil, fmt.Errorf("%w: channel %q: %v frame on the consumer side",
			ErrBadFrame, c.channel.Name(), msg.Kind)
	}
}

// SendFinishedSignal acknowledges the most recently consumed, not yet
// acknowledged event, reporting whether the application handled it.
func (c *Consumer) SendFinishedSignal(handled bool) error {
	msg := Message{Kind: KindFinished, Finished: FinishedBody{Handled: handled}}
	return c.channel.Send(&msg)
}
