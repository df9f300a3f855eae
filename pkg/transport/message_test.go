package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inputwire/pkg/input"
)

// The wire layout is a contract with whatever is on the other end of the
// socket; these constants must never drift.
func TestWireLayout(t *testing.T) {
	assert.Equal(t, 8, headerSize)
	assert.Equal(t, 48, keyBodySize)
	assert.Equal(t, 72, motionFixedSize)
	assert.Equal(t, 44, pointerRecordSize)
	assert.Equal(t, 1, finishedBodySize)
	assert.Equal(t, 520, maxFrameSize)

	// Key body field offsets.
	assert.Equal(t, 0, keyOffEventTime)
	assert.Equal(t, 8, keyOffDeviceID)
	assert.Equal(t, 36, keyOffRepeatCount)
	assert.Equal(t, 40, keyOffDownTime)

	// Motion body field offsets. downTime must land back on an 8-byte
	// boundary after the seven int32 fields and explicit padding.
	assert.Equal(t, 32, motOffEdgeFlags)
	assert.Equal(t, 40, motOffDownTime)
	assert.Equal(t, 64, motOffPointerCount)
	assert.Equal(t, 72, motOffPointers)
	assert.Zero(t, motOffDownTime%8)
	assert.Zero(t, motOffPointerCount%8)
	assert.Zero(t, (headerSize+motOffPointers)%8)
}

func TestMessageSize(t *testing.T) {
	t.Run("key and finished are fixed", func(t *testing.T) {
		key := Message{Kind: KindKey}
		fin := Message{Kind: KindFinished}
		assert.Equal(t, headerSize+keyBodySize, key.Size())
		assert.Equal(t, 9, fin.Size())
	})

	t.Run("motion grows with pointer count", func(t *testing.T) {
		for pc := 1; pc <= input.MaxPointers; pc++ {
			msg := Message{Kind: KindMotion}
			msg.Motion.PointerCount = uint32(pc)
			want := headerSize + motionFixedSize + pc*pointerRecordSize
			assert.Equal(t, want, msg.Size(), "pointerCount=%d", pc)
			assert.True(t, msg.isValid(msg.Size()), "pointerCount=%d", pc)
		}
	})
}

func TestMessageIsValid(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		msg := Message{Kind: Kind(99)}
		assert.False(t, msg.isValid(headerSize))
	})

	t.Run("key size mismatch", func(t *testing.T) {
		msg := Message{Kind: KindKey}
		assert.True(t, msg.isValid(headerSize+keyBodySize))
		assert.False(t, msg.isValid(headerSize+keyBodySize-1))
		assert.False(t, msg.isValid(headerSize+keyBodySize+1))
	})

	t.Run("motion pointer count out of range", func(t *testing.T) {
		msg := Message{Kind: KindMotion}
		msg.Motion.PointerCount = 0
		assert.False(t, msg.isValid(headerSize+motionFixedSize))
		msg.Motion.PointerCount = input.MaxPointers + 1
		assert.False(t, msg.isValid(maxFrameSize))
	})

	t.Run("motion size must match declared count", func(t *testing.T) {
		msg := Message{Kind: KindMotion}
		msg.Motion.PointerCount = 2
		want := headerSize + motionFixedSize + 2*pointerRecordSize
		assert.True(t, msg.isValid(want))
		// One record too many or too few on the wire.
		assert.False(t, msg.isValid(want+pointerRecordSize))
		assert.False(t, msg.isValid(want-pointerRecordSize))
	})
}

func TestMessageEncodeDecode(t *testing.T) {
	t.Run("key round trip", func(t *testing.T) {
		in := Message{
			Kind: KindKey,
			Key: KeyBody{
				EventTime:   123456789012,
				DeviceID:    3,
				Source:      input.SourceKeyboard,
				Action:      input.KeyActionDown,
				Flags:       0x8,
				KeyCode:     29,
				ScanCode:    30,
				MetaState:   input.MetaShiftOn,
				RepeatCount: 2,
				DownTime:    123456780000,
			},
		}
		var buf [maxFrameSize]byte
		n := in.encode(buf[:])
		require.Equal(t, in.Size(), n)

		var out Message
		out.decode(buf[:n])
		require.True(t, out.isValid(n))
		assert.Equal(t, in.Key, out.Key)
	})

	t.Run("motion round trip keeps only declared pointers", func(t *testing.T) {
		in := Message{Kind: KindMotion}
		in.Motion = MotionBody{
			EventTime:    99999999,
			DeviceID:     2,
			Source:       input.SourceTouchscreen,
			Action:       input.MotionActionMove,
			MetaState:    input.MetaAltOn,
			ButtonState:  1,
			EdgeFlags:    4,
			DownTime:     88888888,
			XOffset:      -12.5,
			YOffset:      40,
			XPrecision:   1.5,
			YPrecision:   1.5,
			PointerCount: 2,
		}
		in.Motion.Pointers[0] = Pointer{
			Properties: input.PointerProperties{ID: 0, ToolType: input.ToolTypeFinger},
			Coords:     input.PointerCoords{X: 10, Y: 20, Pressure: 0.75, Size: 0.1},
		}
		in.Motion.Pointers[1] = Pointer{
			Properties: input.PointerProperties{ID: 4, ToolType: input.ToolTypeStylus},
			Coords:     input.PointerCoords{X: -3, Y: 7.25, Orientation: 1.2},
		}
		// Garbage beyond the declared count must not reach the wire.
		in.Motion.Pointers[2] = Pointer{
			Properties: input.PointerProperties{ID: 77, ToolType: 77},
		}

		var buf [maxFrameSize]byte
		n := in.encode(buf[:])
		require.Equal(t, headerSize+motionFixedSize+2*pointerRecordSize, n)

		var out Message
		out.decode(buf[:n])
		require.True(t, out.isValid(n))
		assert.Equal(t, in.Motion.EventTime, out.Motion.EventTime)
		assert.Equal(t, in.Motion.XOffset, out.Motion.XOffset)
		assert.Equal(t, uint32(2), out.Motion.PointerCount)
		assert.Equal(t, in.Motion.Pointers[0], out.Motion.Pointers[0])
		assert.Equal(t, in.Motion.Pointers[1], out.Motion.Pointers[1])
		assert.Zero(t, out.Motion.Pointers[2].Properties.ID)
	})

	t.Run("finished round trip", func(t *testing.T) {
		for _, handled := range []bool{true, false} {
			in := Message{Kind: KindFinished, Finished: FinishedBody{Handled: handled}}
			var buf [maxFrameSize]byte
			n := in.encode(buf[:])
			require.Equal(t, 9, n)

			var out Message
			out.decode(buf[:n])
			require.True(t, out.isValid(n))
			assert.Equal(t, handled, out.Finished.Handled)
		}
	})
}

func TestMessageDecodeDefensive(t *testing.T) {
	t.Run("oversized declared pointer count", func(t *testing.T) {
		// A frame declaring more pointers than it carries must decode
		// without reading past the buffer and then fail validation.
		in := Message{Kind: KindMotion}
		in.Motion.PointerCount = 1
		var buf [maxFrameSize]byte
		n := in.encode(buf[:])
		native.PutUint64(buf[headerSize+motOffPointerCount:], input.MaxPointers+1)

		var out Message
		out.decode(buf[:n])
		assert.False(t, out.isValid(n))
	})

	t.Run("truncated frames", func(t *testing.T) {
		in := Message{Kind: KindKey}
		var buf [maxFrameSize]byte
		n := in.encode(buf[:])
		for cut := 1; cut < n; cut++ {
			var out Message
			out.decode(buf[:cut])
			assert.False(t, out.isValid(cut), "cut=%d", cut)
		}
	})
}
