package vkloop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateSwapchainState(t *testing.T) {
	factory := newFakeFactory(800, 600)

	state, viewport, err := createSwapchainState(factory)
	require.NoError(t, err)

	require.Equal(t, uint64(1), state.Generation)
	require.Len(t, state.Targets, 3)
	require.Equal(t, Viewport{Width: 800, Height: 600, MaxDepth: 1}, viewport)
	require.Nil(t, factory.olds[0])
}

func TestRecreateReplacesWholeGeneration(t *testing.T) {
	factory := newFakeFactory(800, 600)
	state, _, err := createSwapchainState(factory)
	require.NoError(t, err)

	old := factory.current()

	factory.extent = Extent2D{Width: 400, Height: 300}
	viewport, err := state.Recreate(factory)
	require.NoError(t, err)

	require.Equal(t, uint64(2), state.Generation)
	require.Equal(t, Viewport{Width: 400, Height: 300, MaxDepth: 1}, viewport)

	// The old generation was offered for handle reuse, then fully destroyed.
	require.Same(t, Presentable(old), factory.olds[1])
	require.True(t, old.destroyed)
	for _, target := range old.targets {
		require.True(t, target.destroyed)
	}

	require.False(t, factory.current().destroyed)
	require.Len(t, state.Targets, 3)
}

func TestRecreateZeroExtentLeavesStateUntouched(t *testing.T) {
	factory := newFakeFactory(800, 600)
	state, _, err := createSwapchainState(factory)
	require.NoError(t, err)

	chain := factory.current()
	factory.extent = Extent2D{}

	_, err = state.Recreate(factory)
	require.ErrorIs(t, err, ErrUnsupportedDimensions)

	require.Equal(t, uint64(1), state.Generation)
	require.Same(t, Presentable(chain), state.Chain)
	require.False(t, chain.destroyed)
	require.Len(t, factory.chains, 1)
}

func TestRecreateSameSurfaceIsIdempotent(t *testing.T) {
	factory := newFakeFactory(800, 600)
	state, _, err := createSwapchainState(factory)
	require.NoError(t, err)

	format := state.Chain.Format()
	images := state.Chain.ImageCount()

	_, err = state.Recreate(factory)
	require.NoError(t, err)

	require.Equal(t, format, state.Chain.Format())
	require.Equal(t, images, state.Chain.ImageCount())
	require.Equal(t, Extent2D{Width: 800, Height: 600}, state.Chain.Extent())
}

func TestRecreateCreateErrorKeepsCurrentChain(t *testing.T) {
	factory := newFakeFactory(800, 600)
	state, _, err := createSwapchainState(factory)
	require.NoError(t, err)

	chain := factory.current()
	factory.createErr = fmt.Errorf("surface lost")

	_, err = state.Recreate(factory)
	require.Error(t, err)

	require.Equal(t, uint64(1), state.Generation)
	require.False(t, chain.destroyed)
}

func TestDestroyReleasesChainAndTargets(t *testing.T) {
	factory := newFakeFactory(800, 600)
	state, _, err := createSwapchainState(factory)
	require.NoError(t, err)

	chain := factory.current()
	state.Destroy()

	require.True(t, chain.destroyed)
	for _, target := range chain.targets {
		require.True(t, target.destroyed)
	}
}
