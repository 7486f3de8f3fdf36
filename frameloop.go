package vkloop

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// FrameLoop is the frame scheduler. It owns the swapchain state, the stale
// flag and the live completion token, and advances one frame per Tick. The
// window system loop stays with the caller, the FrameLoop is only the per
// iteration transition function.
//
// The loop keeps exactly one frame in flight: after a successful submission
// it blocks on the new completion token before returning. That caps
// throughput but means no transient resource is ever aliased between two
// frames. Deeper pipelining would need a ring of N tokens and per slot
// transient resources instead of the single token slot.
type FrameLoop struct {
	factory  ChainFactory
	provider ContentProvider

	state    *SwapchainState
	viewport Viewport
	prev     *CompletionToken
	stale    bool

	start time.Time
	frame uint64
}

// NewFrameLoop creates the initial swapchain from the surface's minimum
// supported extent and returns a loop ready to tick. Failure here is fatal.
func NewFrameLoop(factory ChainFactory, provider ContentProvider) (*FrameLoop, error) {
	state, viewport, err := createSwapchainState(factory)
	if err != nil {
		return nil, err
	}

	return &FrameLoop{
		factory:  factory,
		provider: provider,
		state:    state,
		viewport: viewport,
		prev:     AlreadySatisfied(),
		start:    time.Now(),
	}, nil
}

// Tick advances the loop by one frame. ev is the window system event for this
// iteration, or nil. It returns false when the loop should stop issuing
// ticks. A non nil error is fatal, recoverable conditions are absorbed here
// and never surfaced.
func (l *FrameLoop) Tick(ev Event) (bool, error) {
	switch ev.(type) {
	case CloseEvent:
		return false, nil
	case ResizeEvent:
		l.stale = true
	}

	// Reclaim transient resources from the previous frame if its GPU work
	// has finished. Never blocks.
	l.prev.Reclaim()

	if l.stale {
		viewport, err := l.state.Recreate(l.factory)
		if errors.Is(err, ErrUnsupportedDimensions) {
			// Zero area surface, typically minimized. Skip the tick
			// and retry on the next one.
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("recreating swapchain: %w", err)
		}
		l.viewport = viewport
		l.stale = false
	}

	acquired, err := l.state.Chain.Acquire()
	if errors.Is(err, ErrOutOfDate) {
		l.stale = true
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring swapchain image: %w", err)
	}
	if acquired.Suboptimal {
		// The image is still valid, render this frame with it and
		// rebuild before the next acquire.
		l.stale = true
	}

	content, err := l.provider.FrameContent(time.Since(l.start))
	if err != nil {
		return false, fmt.Errorf("frame content: %w", err)
	}

	target := l.state.Targets[acquired.ImageIndex]
	if err := l.state.Chain.Encode(acquired.ImageIndex, target, l.viewport, content); err != nil {
		return false, fmt.Errorf("encoding frame %d: %w", l.frame, err)
	}

	next, err := l.state.Chain.SubmitAndPresent(acquired.ImageIndex, l.prev, acquired.Ready)
	switch {
	case errors.Is(err, ErrOutOfDate):
		// No frame was presented, nothing carries forward.
		l.stale = true
		l.prev = AlreadySatisfied()
	case err != nil:
		// Lossy but not fatal. Drop the frame from the dependency
		// chain so the loop is not wedged by a poisoned token.
		log.Printf("frame %d dropped: %v", l.frame, err)
		l.prev = AlreadySatisfied()
	default:
		// One frame in flight: wait here, the satisfied token is still
		// the dependency for the next submission.
		if err := next.Wait(); err != nil {
			return false, fmt.Errorf("waiting for frame %d: %w", l.frame, err)
		}
		l.prev = next
	}

	l.frame++
	return true, nil
}

// Viewport returns the rasterization state for the current swapchain
// generation.
func (l *FrameLoop) Viewport() Viewport {
	return l.viewport
}

// Generation returns the current swapchain generation marker.
func (l *FrameLoop) Generation() uint64 {
	return l.state.Generation
}

// FrameCount returns the number of completed ticks.
func (l *FrameLoop) FrameCount() uint64 {
	return l.frame
}

// Destroy waits for the live token and tears down the swapchain state.
func (l *FrameLoop) Destroy() {
	if err := l.prev.Wait(); err != nil {
		log.Printf("waiting for final frame: %v", err)
	}
	l.prev.Reclaim()
	l.state.Destroy()
}
