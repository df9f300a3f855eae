package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inputwire/pkg/input"
)

func openTestRoles(t *testing.T) (*Publisher, *Consumer) {
	t.Helper()
	server, client, err := OpenPair(t.Name())
	require.NoError(t, err)
	pub := NewPublisher(server)
	con := NewConsumer(client)
	t.Cleanup(func() {
		_ = pub.Close()
		_ = con.Close()
	})
	return pub, con
}

func TestPublishConsumeKeyEvent(t *testing.T) {
	pub, con := openTestRoles(t)

	downTime := int64(1_000_000_000)
	err := pub.PublishKeyEvent(
		1, input.SourceKeyboard, input.KeyActionDown, 0,
		29, 30, input.MetaShiftOn, 0,
		downTime, downTime,
	)
	require.NoError(t, err)

	var factory input.PreallocatedFactory
	ev, err := con.Consume(&factory)
	require.NoError(t, err)

	key, ok := ev.(*input.KeyEvent)
	require.True(t, ok)
	assert.Equal(t, int32(1), key.DeviceID())
	assert.Equal(t, input.SourceKeyboard, key.Source())
	assert.Equal(t, input.KeyActionDown, key.Action())
	assert.Equal(t, int32(29), key.KeyCode())
	assert.Equal(t, int32(30), key.ScanCode())
	assert.Equal(t, input.MetaShiftOn, key.MetaState())
	assert.Equal(t, downTime, key.DownTime())
	assert.Equal(t, downTime, key.EventTime())
}

func TestPublishConsumeMotionEvent(t *testing.T) {
	pub, con := openTestRoles(t)

	props := []input.PointerProperties{
		{ID: 0, ToolType: input.ToolTypeFinger},
		{ID: 2, ToolType: input.ToolTypeFinger},
	}
	coords := []input.PointerCoords{
		{X: 100.5, Y: 200.25, Pressure: 0.9, Size: 0.2, TouchMajor: 4},
		{X: 180, Y: 220, Pressure: 0.4, Size: 0.15, Orientation: -0.5},
	}
	err := pub.PublishMotionEvent(
		2, input.SourceTouchscreen, input.MotionActionMove, 0, 0,
		input.MetaNone, 0,
		-5, 10, 1.0, 1.0,
		7_000_000, 8_000_000,
		2, props, coords,
	)
	require.NoError(t, err)

	ev, err := con.Consume(input.AllocFactory{})
	require.NoError(t, err)

	motion, ok := ev.(*input.MotionEvent)
	require.True(t, ok)
	assert.Equal(t, int32(2), motion.DeviceID())
	assert.Equal(t, input.SourceTouchscreen, motion.Source())
	assert.Equal(t, input.MotionActionMove, motion.Action())
	assert.Equal(t, float32(-5), motion.XOffset())
	assert.Equal(t, int64(7_000_000), motion.DownTime())
	assert.Equal(t, int64(8_000_000), motion.EventTime())
	require.Equal(t, 2, motion.PointerCount())
	for i := 0; i < 2; i++ {
		assert.Equal(t, props[i], motion.PointerProperties(i), "pointer %d", i)
		assert.Equal(t, coords[i], motion.PointerCoords(i), "pointer %d", i)
	}
	// Display-space coordinates fold in the offset.
	assert.Equal(t, float32(95.5), motion.X(0))
	assert.Equal(t, float32(210.25), motion.Y(0))
}

func TestPublishMotionEventInvalidPointerCount(t *testing.T) {
	pub, con := openTestRoles(t)

	props := make([]input.PointerProperties, input.MaxPointers+1)
	coords := make([]input.PointerCoords, input.MaxPointers+1)
	for _, pc := range []int{0, -1, input.MaxPointers + 1} {
		err := pub.PublishMotionEvent(
			1, input.SourceTouchscreen, input.MotionActionDown, 0, 0, 0, 0,
			0, 0, 1, 1, 0, 0,
			pc, props, coords,
		)
		assert.ErrorIs(t, err, ErrInvalidArgument, "pointerCount=%d", pc)
	}

	t.Run("slices shorter than declared count", func(t *testing.T) {
		err := pub.PublishMotionEvent(
			1, input.SourceTouchscreen, input.MotionActionDown, 0, 0, 0, 0,
			0, 0, 1, 1, 0, 0,
			3, props[:2], coords[:2],
		)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	// No bytes may have reached the consumer.
	_, err := con.Consume(input.AllocFactory{})
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestFinishedSignalOrdering(t *testing.T) {
	pub, con := openTestRoles(t)

	for _, keyCode := range []int32{10, 11, 12} {
		require.NoError(t, pub.PublishKeyEvent(
			1, input.SourceKeyboard, input.KeyActionDown, 0,
			keyCode, 0, 0, 0, 0, 0,
		))
	}

	handledByEvent := []bool{true, false, true}
	var factory input.PreallocatedFactory
	for i, handled := range handledByEvent {
		ev, err := con.Consume(&factory)
		require.NoError(t, err)
		require.Equal(t, int32(10+i), ev.(*input.KeyEvent).KeyCode())
		require.NoError(t, con.SendFinishedSignal(handled))
	}

	// The Nth finished signal acknowledges the Nth published event.
	for i, want := range handledByEvent {
		handled, err := pub.ReceiveFinishedSignal()
		require.NoError(t, err)
		assert.Equal(t, want, handled, "signal %d", i)
	}
}

func TestReceiveFinishedSignalWrongKind(t *testing.T) {
	pub, con := openTestRoles(t)

	// A key frame traveling consumer->publisher violates the protocol.
	require.NoError(t, con.Channel().Send(keyMessage(1)))

	_, err := pub.ReceiveFinishedSignal()
	assert.ErrorIs(t, err, ErrBadFrame)
}

func TestConsumeFinishedFrameIsFault(t *testing.T) {
	pub, con := openTestRoles(t)

	msg := Message{Kind: KindFinished, Finished: FinishedBody{Handled: true}}
	require.NoError(t, pub.Channel().Send(&msg))

	_, err := con.Consume(input.AllocFactory{})
	assert.ErrorIs(t, err, ErrBadFrame)
}

type exhaustedFactory struct{}

func (exhaustedFactory) NewKeyEvent() (*input.KeyEvent, error)       { return nil, input.ErrNoMemory }
func (exhaustedFactory) NewMotionEvent() (*input.MotionEvent, error) { return nil, input.ErrNoMemory }

func TestConsumeAllocationFailure(t *testing.T) {
	pub, con := openTestRoles(t)

	require.NoError(t, pub.PublishKeyEvent(1, input.SourceKeyboard, input.KeyActionDown, 0, 7, 0, 0, 0, 0, 0))
	require.NoError(t, pub.PublishKeyEvent(1, input.SourceKeyboard, input.KeyActionUp, 0, 8, 0, 0, 0, 0, 0))

	_, err := con.Consume(exhaustedFactory{})
	assert.ErrorIs(t, err, input.ErrNoMemory)

	// The channel survives an allocation failure; the next event is
	// still there.
	ev, err := con.Consume(input.AllocFactory{})
	require.NoError(t, err)
	assert.Equal(t, int32(8), ev.(*input.KeyEvent).KeyCode())
}

func TestRolesPeerClosed(t *testing.T) {
	server, client, err := OpenPair(t.Name())
	require.NoError(t, err)
	pub := NewPublisher(server)
	con := NewConsumer(client)

	require.NoError(t, con.Close())

	assert.ErrorIs(t, pub.PublishKeyEvent(1, input.SourceKeyboard, input.KeyActionDown, 0, 1, 0, 0, 0, 0, 0), ErrPeerClosed)
	_, err = pub.ReceiveFinishedSignal()
	assert.ErrorIs(t, err, ErrPeerClosed)
	require.NoError(t, pub.Close())
}
