package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mithrel/inputwire/pkg/input"
)

// Kind tags a wire frame. The numeric values are part of the protocol.
type Kind uint32

const (
	KindKey      Kind = 1
	KindMotion   Kind = 2
	KindFinished Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindMotion:
		return "motion"
	case KindFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Frames use the host's native byte order: both endpoints live on the same
// machine and are built from the same source, so no portable encoding is
// needed or wanted on this hot path.
var native = binary.NativeEndian

// Wire layout. Every frame is an 8-byte header followed by a kind-specific
// body starting at an 8-byte-aligned offset:
//
//	header   kind u32, padding u32
//	key      eventTime i64; deviceID, source, action, flags, keyCode,
//	         scanCode, metaState, repeatCount i32; downTime i64
//	motion   eventTime i64; deviceID, source, action, flags, metaState,
//	         buttonState, edgeFlags i32; padding u32; downTime i64;
//	         xOffset, yOffset, xPrecision, yPrecision f32;
//	         pointerCount u64; then pointerCount pointer records
//	pointer  id, toolType i32; x, y, pressure, size, touchMajor,
//	         touchMinor, toolMajor, toolMinor, orientation f32
//	finished handled u8
//
// A motion frame carries only pointerCount records, not the full
// MaxPointers capacity, so single-touch frames stay small. The offsets
// below are the layout contract; message_test.go pins each one.
const (
	headerSize        = 8
	keyBodySize       = 48
	motionFixedSize   = 72
	pointerRecordSize = 44
	finishedBodySize  = 1

	// maxFrameSize bounds every receive buffer.
	maxFrameSize = headerSize + motionFixedSize + input.MaxPointers*pointerRecordSize
)

// Body-relative field offsets.
const (
	keyOffEventTime   = 0
	keyOffDeviceID    = 8
	keyOffSource      = 12
	keyOffAction      = 16
	keyOffFlags       = 20
	keyOffKeyCode     = 24
	keyOffScanCode    = 28
	keyOffMetaState   = 32
	keyOffRepeatCount = 36
	keyOffDownTime    = 40

	motOffEventTime   = 0
	motOffDeviceID    = 8
	motOffSource      = 12
	motOffAction      = 16
	motOffFlags       = 20
	motOffMetaState   = 24
	motOffButtonState = 28
	motOffEdgeFlags   = 32
	// 4 bytes of padding at 36 keep downTime 8-byte aligned.
	motOffDownTime     = 40
	motOffXOffset      = 48
	motOffYOffset      = 52
	motOffXPrecision   = 56
	motOffYPrecision   = 60
	motOffPointerCount = 64
	motOffPointers     = 72

	ptrOffID          = 0
	ptrOffToolType    = 4
	ptrOffX           = 8
	ptrOffY           = 12
	ptrOffPressure    = 16
	ptrOffSize        = 20
	ptrOffTouchMajor  = 24
	ptrOffTouchMinor  = 28
	ptrOffToolMajor   = 32
	ptrOffToolMinor   = 36
	ptrOffOrientation = 40
)

// KeyBody carries one key event.
type KeyBody struct {
	EventTime   int64
	DeviceID    int32
	Source      int32
	Action      int32
	Flags       int32
	KeyCode     int32
	ScanCode    int32
	MetaState   int32
	RepeatCount int32
	DownTime    int64
}

// Pointer is one contact's slice of a motion frame.
type Pointer struct {
	Properties input.PointerProperties
	Coords     input.PointerCoords
}

// MotionBody carries one motion event with PointerCount contacts.
type MotionBody struct {
	EventTime    int64
	DeviceID     int32
	Source       int32
	Action       int32
	Flags        int32
	MetaState    int32
	ButtonState  int32
	EdgeFlags    int32
	DownTime     int64
	XOffset      float32
	YOffset      float32
	XPrecision   float32
	YPrecision   float32
	PointerCount uint32
	Pointers     [input.MaxPointers]Pointer
}

// FinishedBody acknowledges one previously consumed event.
type FinishedBody struct {
	Handled bool
}

// Message is one transport frame: a kind tag plus the matching body. It is
// a plain value; copying it copies the frame.
type Message struct {
	Kind     Kind
	Key      KeyBody
	Motion   MotionBody
	Finished FinishedBody
}

// Size returns the exact number of bytes this message occupies on the wire.
// For motion frames the size depends on the pointer count.
func (m *Message) Size() int {
	switch m.Kind {
	case KindKey:
		return headerSize + keyBodySize
	case KindMotion:
		return headerSize + motionFixedSize + int(m.Motion.PointerCount)*pointerRecordSize
	case KindFinished:
		return headerSize + finishedBodySize
	default:
		return headerSize
	}
}

// isValid reports whether a message whose fields were decoded from
// actualSize received bytes is a well-formed frame. It must pass before any
// decoded field is trusted: the peer may be stale, compromised, or have
// closed mid-write.
func (m *Message) isValid(actualSize int) bool {
	switch m.Kind {
	case KindKey:
		return actualSize == headerSize+keyBodySize
	case KindMotion:
		pc := m.Motion.PointerCount
		if pc < 1 || pc > input.MaxPointers {
			return false
		}
		return actualSize == m.Size()
	case KindFinished:
		return actualSize == headerSize+finishedBodySize
	default:
		return false
	}
}

// encode writes the frame into buf, which must hold at least Size() bytes,
// and returns the frame length. Padding bytes are zeroed so frames compare
// byte-for-byte equal when their fields are equal.
func (m *Message) encode(buf []byte) int {
	native.PutUint32(buf[0:], uint32(m.Kind))
	native.PutUint32(buf[4:], 0)
	body := buf[headerSize:]

	switch m.Kind {
	case KindKey:
		k := &m.Key
		native.PutUint64(body[keyOffEventTime:], uint64(k.EventTime))
		native.PutUint32(body[keyOffDeviceID:], uint32(k.DeviceID))
		native.PutUint32(body[keyOffSource:], uint32(k.Source))
		native.PutUint32(body[keyOffAction:], uint32(k.Action))
		native.PutUint32(body[keyOffFlags:], uint32(k.Flags))
		native.PutUint32(body[keyOffKeyCode:], uint32(k.KeyCode))
		native.PutUint32(body[keyOffScanCode:], uint32(k.ScanCode))
		native.PutUint32(body[keyOffMetaState:], uint32(k.MetaState))
		native.PutUint32(body[keyOffRepeatCount:], uint32(k.RepeatCount))
		native.PutUint64(body[keyOffDownTime:], uint64(k.DownTime))

	case KindMotion:
		mo := &m.Motion
		native.PutUint64(body[motOffEventTime:], uint64(mo.EventTime))
		native.PutUint32(body[motOffDeviceID:], uint32(mo.DeviceID))
		native.PutUint32(body[motOffSource:], uint32(mo.Source))
		native.PutUint32(body[motOffAction:], uint32(mo.Action))
		native.PutUint32(body[motOffFlags:], uint32(mo.Flags))
		native.PutUint32(body[motOffMetaState:], uint32(mo.MetaState))
		native.PutUint32(body[motOffButtonState:], uint32(mo.ButtonState))
		native.PutUint32(body[motOffEdgeFlags:], uint32(mo.EdgeFlags))
		native.PutUint32(body[motOffEdgeFlags+4:], 0)
		native.PutUint64(body[motOffDownTime:], uint64(mo.DownTime))
		native.PutUint32(body[motOffXOffset:], math.Float32bits(mo.XOffset))
		native.PutUint32(body[motOffYOffset:], math.Float32bits(mo.YOffset))
		native.PutUint32(body[motOffXPrecision:], math.Float32bits(mo.XPrecision))
		native.PutUint32(body[motOffYPrecision:], math.Float32bits(mo.YPrecision))
		native.PutUint64(body[motOffPointerCount:], uint64(mo.PointerCount))
		for i := 0; i < int(mo.PointerCount); i++ {
			rec := body[motOffPointers+i*pointerRecordSize:]
			p := &mo.Pointers[i]
			native.PutUint32(rec[ptrOffID:], uint32(p.Properties.ID))
			native.PutUint32(rec[ptrOffToolType:], uint32(p.Properties.ToolType))
			native.PutUint32(rec[ptrOffX:], math.Float32bits(p.Coords.X))
			native.PutUint32(rec[ptrOffY:], math.Float32bits(p.Coords.Y))
			native.PutUint32(rec[ptrOffPressure:], math.Float32bits(p.Coords.Pressure))
			native.PutUint32(rec[ptrOffSize:], math.Float32bits(p.Coords.Size))
			native.PutUint32(rec[ptrOffTouchMajor:], math.Float32bits(p.Coords.TouchMajor))
			native.PutUint32(rec[ptrOffTouchMinor:], math.Float32bits(p.Coords.TouchMinor))
			native.PutUint32(rec[ptrOffToolMajor:], math.Float32bits(p.Coords.ToolMajor))
			native.PutUint32(rec[ptrOffToolMinor:], math.Float32bits(p.Coords.ToolMinor))
			native.PutUint32(rec[ptrOffOrientation:], math.Float32bits(p.Coords.Orientation))
		}

	case KindFinished:
		if m.Finished.Handled {
			body[0] = 1
		} else {
			body[0] = 0
		}
	}
	return m.Size()
}

// MarshalBinary returns the message's exact wire encoding. Useful for
// recording frames; the channel itself never needs it.
func (m *Message) MarshalBinary() ([]byte, error) {
	buf := make([]byte, m.Size())
	m.encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes a frame previously produced by MarshalBinary (or
// captured off the wire), applying the same validation as Receive.
func (m *Message) UnmarshalBinary(data []byte) error {
	m.decode(data)
	if !m.isValid(len(data)) {
		return fmt.Errorf("%w: %d bytes declaring kind %d", ErrBadFrame, len(data), uint32(m.Kind))
	}
	return nil
}

// decode fills the message from a received frame. It never reads past
// len(buf); fields the frame is too short to carry stay zero. Callers must
// check isValid(len(buf)) before using any field.
func (m *Message) decode(buf []byte) {
	*m = Message{}
	if len(buf) < 4 {
		return
	}
	m.Kind = Kind(native.Uint32(buf[0:]))
	if len(buf) < headerSize {
		return
	}
	body := buf[headerSize:]

	switch m.Kind {
	case KindKey:
		if len(body) < keyBodySize {
			return
		}
		k := &m.Key
		k.EventTime = int64(native.Uint64(body[keyOffEventTime:]))
		k.DeviceID = int32(native.Uint32(body[keyOffDeviceID:]))
		k.Source = int32(native.Uint32(body[keyOffSource:]))
		k.Action = int32(native.Uint32(body[keyOffAction:]))
		k.Flags = int32(native.Uint32(body[keyOffFlags:]))
		k.KeyCode = int32(native.Uint32(body[keyOffKeyCode:]))
		k.ScanCode = int32(native.Uint32(body[keyOffScanCode:]))
		k.MetaState = int32(native.Uint32(body[keyOffMetaState:]))
		k.RepeatCount = int32(native.Uint32(body[keyOffRepeatCount:]))
		k.DownTime = int64(native.Uint64(body[keyOffDownTime:]))

	case KindMotion:
		if len(body) < motionFixedSize {
			return
		}
		mo := &m.Motion
		mo.EventTime = int64(native.Uint64(body[motOffEventTime:]))
		mo.DeviceID = int32(native.Uint32(body[motOffDeviceID:]))
		mo.Source = int32(native.Uint32(body[motOffSource:]))
		mo.Action = int32(native.Uint32(body[motOffAction:]))
		mo.Flags = int32(native.Uint32(body[motOffFlags:]))
		mo.MetaState = int32(native.Uint32(body[motOffMetaState:]))
		mo.ButtonState = int32(native.Uint32(body[motOffButtonState:]))
		mo.EdgeFlags = int32(native.Uint32(body[motOffEdgeFlags:]))
		mo.DownTime = int64(native.Uint64(body[motOffDownTime:]))
		mo.XOffset = math.Float32frombits(native.Uint32(body[motOffXOffset:]))
		mo.YOffset = math.Float32frombits(native.Uint32(body[motOffYOffset:]))
		mo.XPrecision = math.Float32frombits(native.Uint32(body[motOffXPrecision:]))
		mo.YPrecision = math.Float32frombits(native.Uint32(body[motOffYPrecision:]))
		// The declared count is untrusted until isValid runs; clamp what
		// we copy to what the buffer actually holds.
		declared := native.Uint64(body[motOffPointerCount:])
		if declared > math.MaxUint32 {
			declared = math.MaxUint32
		}
		mo.PointerCount = uint32(declared)
		n := int(mo.PointerCount)
		if n > input.MaxPointers {
			n = input.MaxPointers
		}
		for i := 0; i < n; i++ {
			rec := body[motOffPointers+i*pointerRecordSize:]
			if len(rec) < pointerRecordSize {
				break
			}
			p := &mo.Pointers[i]
			p.Properties.ID = int32(native.Uint32(rec[ptrOffID:]))
			p.Properties.ToolType = int32(native.Uint32(rec[ptrOffToolType:]))
			p.Coords.X = math.Float32frombits(native.Uint32(rec[ptrOffX:]))
			p.Coords.Y = math.Float32frombits(native.Uint32(rec[ptrOffY:]))
			p.Coords.Pressure = math.Float32frombits(native.Uint32(rec[ptrOffPressure:]))
			p.Coords.Size = math.Float32frombits(native.Uint32(rec[ptrOffSize:]))
			p.Coords.TouchMajor = math.Float32frombits(native.Uint32(rec[ptrOffTouchMajor:]))
			p.Coords.TouchMinor = math.Float32frombits(native.Uint32(rec[ptrOffTouchMinor:]))
			p.Coords.ToolMajor = math.Float32frombits(native.Uint32(rec[ptrOffToolMajor:]))
			p.Coords.ToolMinor = math.Float32frombits(native.Uint32(rec[ptrOffToolMinor:]))
			p.Coords.Orientation = math.Float32frombits(native.Uint32(rec[ptrOffOrientation:]))
		}

	case KindFinished:
		if len(body) < finishedBodySize {
			return
		}
		m.Finished.Handled = body[0] != 0
	}
}
