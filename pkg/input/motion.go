package input

// MotionEvent describes one pointer event (touch, stylus, mouse) with up to
// MaxPointers simultaneous contacts.
type MotionEvent struct {
	deviceID     int32
	source       int32
	action       int32
	flags        int32
	edgeFlags    int32
	metaState    int32
	buttonState  int32
	xOffset      float32
	yOffset      float32
	xPrecision   float32
	yPrecision   float32
	downTime     int64
	eventTime    int64
	pointerCount int
	props        [MaxPointers]PointerProperties
	coords       [MaxPointers]PointerCoords
}

// Initialize overwrites every field of the event, copying the first
// pointerCount elements of props and coords. pointerCount must already be
// validated by the caller to be in [1, MaxPointers].
func (e *MotionEvent) Initialize(
	deviceID, source, action, flags, edgeFlags, metaState, buttonState int32,
	xOffset, yOffset, xPrecision, yPrecision float32,
	downTime, eventTime int64,
	pointerCount int,
	props []PointerProperties, coords []PointerCoords,
) {
	e.deviceID = deviceID
	e.source = source
	e.action = action
	e.flags = flags
	e.edgeFlags = edgeFlags
	e.metaState = metaState
	e.buttonState = buttonState
	e.xOffset = xOffset
	e.yOffset = yOffset
	e.xPrecision = xPrecision
	e.yPrecision = yPrecision
	e.downTime = downTime
	e.eventTime = eventTime
	e.pointerCount = pointerCount
	copy(e.props[:], props[:pointerCount])
	copy(e.coords[:], coords[:pointerCount])
}

func (e *MotionEvent) Type() EventType     { return EventTypeMotion }
func (e *MotionEvent) DeviceID() int32     { return e.deviceID }
func (e *MotionEvent) Source() int32       { return e.source }
func (e *MotionEvent) Action() int32       { return e.action }
func (e *MotionEvent) Flags() int32        { return e.flags }
func (e *MotionEvent) EdgeFlags() int32    { return e.edgeFlags }
func (e *MotionEvent) MetaState() int32    { return e.metaState }
func (e *MotionEvent) ButtonState() int32  { return e.buttonState }
func (e *MotionEvent) XOffset() float32    { return e.xOffset }
func (e *MotionEvent) YOffset() float32    { return e.yOffset }
func (e *MotionEvent) XPrecision() float32 { return e.xPrecision }
func (e *MotionEvent) YPrecision() float32 { return e.yPrecision }
func (e *MotionEvent) DownTime() int64     { return e.downTime }
func (e *MotionEvent) EventTime() int64    { return e.eventTime }
func (e *MotionEvent) PointerCount() int   { return e.pointerCount }

// PointerProperties returns the identity record of pointer index i.
func (e *MotionEvent) PointerProperties(i int) PointerProperties { return e.props[i] }

// PointerCoords returns the axis values of pointer index i.
func (e *MotionEvent) PointerCoords(i int) PointerCoords { return e.coords[i] }

// X returns the display-space X of pointer index i (raw axis plus offset).
func (e *MotionEvent) X(i int) float32 { return e.coords[i].X + e.xOffset }

// Y returns the display-space Y of pointer index i (raw axis plus offset).
func (e *MotionEvent) Y(i int) float32 { return e.coords[i].Y + e.yOffset }
