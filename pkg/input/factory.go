package input

import "errors"

// ErrNoMemory is returned by factories that cannot allocate an event, for
// example a bounded pool that is exhausted.
var ErrNoMemory = errors.New("input: event allocation failed")

// EventFactory allocates event objects for a consumer. Implementations may
// pool or reuse storage; the returned event is owned by the caller until it
// asks the factory for the next event of the same kind.
type EventFactory interface {
	NewKeyEvent() (*KeyEvent, error)
	NewMotionEvent() (*MotionEvent, error)
}

// AllocFactory allocates a fresh event per call.
type AllocFactory struct{}

func (AllocFactory) NewKeyEvent() (*KeyEvent, error)       { return new(KeyEvent), nil }
func (AllocFactory) NewMotionEvent() (*MotionEvent, error) { return new(MotionEvent), nil }

// PreallocatedFactory hands out the same two event objects over and over.
// Suited to consumers that fully process each event before consuming the
// next one, which is the common single-threaded event loop shape.
type PreallocatedFactory struct {
	key    KeyEvent
	motion MotionEvent
}

func (f *PreallocatedFactory) NewKeyEvent() (*KeyEvent, error)       { return &f.key, nil }
func (f *PreallocatedFactory) NewMotionEvent() (*MotionEvent, error) { return &f.motion, nil }
