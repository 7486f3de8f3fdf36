package vkloop

// Viewport is the dynamic rasterization state derived from the current
// swapchain dimensions. It has no lifecycle of its own, it is recomputed
// whenever the swapchain is rebuilt.
type Viewport struct {
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// ViewportFor derives the viewport state for the given swapchain extent. The
// depth range is always [0,1].
func ViewportFor(extent Extent2D) Viewport {
	return Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}
