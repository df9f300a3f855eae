// Package input defines the structured input event model shared by the
// publisher and consumer sides of the transport: key and motion events,
// per-pointer records, and the factory used to allocate events on the
// consuming side.
package input

// EventType discriminates the concrete event kinds.
type EventType int32

const (
	EventTypeKey EventType = iota + 1
	EventTypeMotion
)

// MaxPointers is the maximum number of simultaneous touch points a single
// motion event can carry.
const MaxPointers = 10

// Input sources.
const (
	SourceUnknown     int32 = 0x0000
	SourceKeyboard    int32 = 0x0101
	SourceTouchscreen int32 = 0x1002
	SourceMouse       int32 = 0x2002
)

// Key event actions.
const (
	KeyActionDown int32 = iota
	KeyActionUp
	KeyActionMultiple
)

// Motion event actions.
const (
	MotionActionDown int32 = iota
	MotionActionUp
	MotionActionMove
	MotionActionCancel
)

// Modifier key (meta) state bits.
const (
	MetaNone    int32 = 0
	MetaShiftOn int32 = 0x0001
	MetaAltOn   int32 = 0x0002
	MetaCtrlOn  int32 = 0x1000
)

// Pointer tool classification.
const (
	ToolTypeUnknown int32 = iota
	ToolTypeFinger
	ToolTypeStylus
	ToolTypeMouse
)

// PointerProperties identifies and classifies one contact within a motion
// event. The ID is stable for the lifetime of the gesture.
type PointerProperties struct {
	ID       int32
	ToolType int32
}

// PointerCoords holds the axis values of one contact.
type PointerCoords struct {
	X           float32
	Y           float32
	Pressure    float32
	Size        float32
	TouchMajor  float32
	TouchMinor  float32
	ToolMajor   float32
	ToolMinor   float32
	Orientation float32
}

// Event is the common surface of key and motion events.
type Event interface {
	Type() EventType
	DeviceID() int32
	Source() int32
	EventTime() int64
}
