package vkloop

import (
	"fmt"
	"log"
)

// SwapchainState owns the current chain generation and its render targets.
// There is exactly one entry in Targets per chain image, rebuilt in full
// whenever the chain is rebuilt. Targets from a stale generation are never
// used against a newer chain, the whole state is replaced at once.
type SwapchainState struct {
	Chain      Presentable
	Targets    []RenderTarget
	Generation uint64
}

// createSwapchainState builds the initial chain from the surface's minimum
// supported extent. Failure here is fatal, it means the surface and device
// combination is fundamentally unsupported.
func createSwapchainState(factory ChainFactory) (*SwapchainState, Viewport, error) {
	extent, err := factory.MinImageExtent()
	if err != nil {
		return nil, Viewport{}, fmt.Errorf("querying surface extent: %w", err)
	}

	chain, err := factory.CreateChain(extent, nil)
	if err != nil {
		return nil, Viewport{}, fmt.Errorf("creating swapchain: %w", err)
	}

	targets, err := chain.BuildTargets()
	if err != nil {
		chain.Destroy()
		return nil, Viewport{}, fmt.Errorf("building render targets: %w", err)
	}

	state := &SwapchainState{
		Chain:      chain,
		Targets:    targets,
		Generation: 1,
	}

	return state, ViewportFor(chain.Extent()), nil
}

// Recreate tears down and rebuilds the chain against the surface's current
// minimum supported extent. On ErrUnsupportedDimensions the existing state is
// left untouched so the caller can skip the tick and retry later. Any other
// error is fatal.
//
// Recreation is all or nothing. Render targets are format and extent bound,
// and image handles are not stable across recreation, so partial reuse across
// generations is forbidden.
func (s *SwapchainState) Recreate(factory ChainFactory) (Viewport, error) {
	extent, err := factory.MinImageExtent()
	if err != nil {
		return Viewport{}, fmt.Errorf("querying surface extent: %w", err)
	}
	if extent.Zero() {
		return Viewport{}, ErrUnsupportedDimensions
	}

	chain, err := factory.CreateChain(extent, s.Chain)
	if err != nil {
		return Viewport{}, err
	}

	targets, err := chain.BuildTargets()
	if err != nil {
		chain.Destroy()
		return Viewport{}, fmt.Errorf("building render targets: %w", err)
	}

	s.destroyCurrent()
	s.Chain = chain
	s.Targets = targets
	s.Generation++

	log.Printf("swapchain rebuilt: generation %d extent %dx%d images %d",
		s.Generation, extent.Width, extent.Height, chain.ImageCount())

	return ViewportFor(chain.Extent()), nil
}

func (s *SwapchainState) destroyCurrent() {
	for _, t := range s.Targets {
		t.Destroy()
	}
	s.Targets = nil
	if s.Chain != nil {
		s.Chain.Destroy()
	}
}

// Destroy releases the current generation.
func (s *SwapchainState) Destroy() {
	s.destroyCurrent()
}
