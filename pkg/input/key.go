package input

// KeyEvent describes one key press, release, or repeat.
// Times are in nanoseconds on the same clock the producing side uses for
// all events (monotonic on Linux).
type KeyEvent struct {
	deviceID    int32
	source      int32
	action      int32
	flags       int32
	keyCode     int32
	scanCode    int32
	metaState   int32
	repeatCount int32
	downTime    int64
	eventTime   int64
}

// Initialize overwrites every field of the event. Factories reuse event
// storage, so no field survives from a previous use.
func (e *KeyEvent) Initialize(
	deviceID, source, action, flags, keyCode, scanCode, metaState, repeatCount int32,
	downTime, eventTime int64,
) {
	e.deviceID = deviceID
	e.source = source
	e.action = action
	e.flags = flags
	e.keyCode = keyCode
	e.scanCode = scanCode
	e.metaState = metaState
	e.repeatCount = repeatCount
	e.downTime = downTime
	e.eventTime = eventTime
}

func (e *KeyEvent) Type() EventType    { return EventTypeKey }
func (e *KeyEvent) DeviceID() int32    { return e.deviceID }
func (e *KeyEvent) Source() int32      { return e.source }
func (e *KeyEvent) Action() int32      { return e.action }
func (e *KeyEvent) Flags() int32       { return e.flags }
func (e *KeyEvent) KeyCode() int32     { return e.keyCode }
func (e *KeyEvent) ScanCode() int32    { return e.scanCode }
func (e *KeyEvent) MetaState() int32   { return e.metaState }
func (e *KeyEvent) RepeatCount() int32 { return e.repeatCount }
func (e *KeyEvent) DownTime() int64    { return e.downTime }
func (e *KeyEvent) EventTime() int64   { return e.eventTime }
