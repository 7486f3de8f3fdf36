package vkloop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewportFor(t *testing.T) {
	vp := ViewportFor(Extent2D{Width: 800, Height: 600})
	require.Equal(t, Viewport{Width: 800, Height: 600, MinDepth: 0, MaxDepth: 1}, vp)
}
