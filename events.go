package vkloop

// Event is a signal from the window system loop. The loop itself is owned by
// the caller, the engine only reacts to events passed into each Tick.
type Event interface {
	isEvent()
}

// ResizeEvent reports that the surface geometry changed. The engine does not
// trust the reported size, it requeries the surface before rebuilding, so the
// fields are informational only.
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) isEvent() {}

// CloseEvent requests shutdown. The loop stops issuing ticks, already
// submitted GPU work runs to completion.
type CloseEvent struct{}

func (CloseEvent) isEvent() {}
