package vkloop

import "errors"

// ErrOutOfDate is returned by acquire or present when the swapchain no longer
// matches the surface. It is recoverable, the frame loop rebuilds the chain
// on the next tick.
var ErrOutOfDate = errors.New("swapchain out of date")

// ErrUnsupportedDimensions is returned by chain recreation when the surface
// reports a degenerate extent, typically zero area while a window is
// minimized or mid resize. It is recoverable, the tick is skipped and the
// rebuild retried on the next one.
var ErrUnsupportedDimensions = errors.New("unsupported swapchain dimensions")
