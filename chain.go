package vkloop

import "time"

// Extent2D is an image size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Zero reports whether the extent describes a degenerate, zero area surface.
func (e Extent2D) Zero() bool {
	return e.Width == 0 || e.Height == 0
}

// PixelFormat identifies the pixel format of the chain images. The frame loop
// treats it as opaque, it only matters to the backend and to tests that check
// rebuild idempotence.
type PixelFormat uint32

// RenderTarget wraps exactly one chain image as a color attachment. Targets
// are format and extent bound, they are rebuilt in full on every swapchain
// generation and must never outlive their chain.
type RenderTarget interface {
	Destroy()
}

// AcquireResult is a successful acquire. Ready signals when the image is
// actually safe to render into, it must be passed back into SubmitAndPresent
// for the same image.
type AcquireResult struct {
	ImageIndex int
	Suboptimal bool
	Ready      *CompletionToken
}

// Draw is one draw invocation recorded into the frame's render pass.
type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// FrameContent is what the content provider supplies for one frame: a
// bindable data blob, for example a transform, and the draws to record.
type FrameContent struct {
	Bind  []byte
	Draws []Draw
}

// ContentProvider supplies per frame draw content. elapsed is the time since
// the loop started, so providers can vary content deterministically across
// frames.
type ContentProvider interface {
	FrameContent(elapsed time.Duration) (FrameContent, error)
}

// Presentable is one generation of the swapchain. It is mutated only by the
// frame loop on the control thread.
//
// Acquire blocks until an image is available and classifies the outcome:
// success, ErrOutOfDate (recoverable), or anything else (fatal). Encode
// records the frame's commands without any GPU synchronization.
// SubmitAndPresent chains prev and acquired ahead of the recorded commands,
// presents the image and returns the new completion token; ErrOutOfDate from
// it is recoverable, any other error drops the frame but not the loop.
type Presentable interface {
	Extent() Extent2D
	Format() PixelFormat
	ImageCount() int
	BuildTargets() ([]RenderTarget, error)
	Acquire() (AcquireResult, error)
	Encode(imageIndex int, target RenderTarget, viewport Viewport, content FrameContent) error
	SubmitAndPresent(imageIndex int, prev, acquired *CompletionToken) (*CompletionToken, error)
	Destroy()
}

// ChainFactory is the presentation surface binding as seen by the frame loop:
// it can report the surface's current minimum supported extent and produce a
// new chain generation.
//
// CreateChain returns ErrUnsupportedDimensions when the platform rejects the
// extent, which the caller treats as a skipped tick, not a failure. old is
// the previous generation, or nil at startup; the factory may reuse it but
// must not destroy it.
type ChainFactory interface {
	MinImageExtent() (Extent2D, error)
	CreateChain(extent Extent2D, old Presentable) (Presentable, error)
}
