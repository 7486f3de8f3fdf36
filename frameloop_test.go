package vkloop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T, width, height uint32) (*FrameLoop, *fakeFactory, *fakeProvider) {
	t.Helper()
	factory := newFakeFactory(width, height)
	provider := &fakeProvider{}
	loop, err := NewFrameLoop(factory, provider)
	require.NoError(t, err)
	return loop, factory, provider
}

func TestStartupUsesMinimumSupportedExtent(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	require.Equal(t, uint64(1), loop.Generation())
	require.Equal(t, Viewport{Width: 800, Height: 600, MaxDepth: 1}, loop.Viewport())
	require.Len(t, factory.chains, 1)
	require.Equal(t, 3, factory.current().images)
}

func TestSteadyStateTicks(t *testing.T) {
	loop, factory, provider := newTestLoop(t, 800, 600)

	for i := 0; i < 10; i++ {
		cont, err := loop.Tick(nil)
		require.NoError(t, err)
		require.True(t, cont)
	}

	chain := factory.current()
	require.Equal(t, 10, chain.presents)
	require.Equal(t, uint64(10), loop.FrameCount())
	require.Equal(t, uint64(1), loop.Generation())
	require.Len(t, factory.chains, 1)
	require.Len(t, provider.elapsed, 10)

	// Image indices cycle through the chain.
	for i, rec := range chain.encodes {
		require.Equal(t, i%chain.images, rec.imageIndex)
	}
}

func TestSubmissionDependencyChain(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	for i := 0; i < 5; i++ {
		_, err := loop.Tick(nil)
		require.NoError(t, err)
	}

	chain := factory.current()
	require.Len(t, chain.prevs, 5)

	// The first submission depends on the startup token, each one after
	// depends on exactly the token produced by the one before it, already
	// satisfied because one frame is in flight.
	require.True(t, chain.prevs[0].Satisfied())
	for i := 1; i < len(chain.prevs); i++ {
		require.Same(t, chain.tokens[i-1], chain.prevs[i])
		require.True(t, chain.prevs[i].Satisfied())
	}
}

func TestResizeRebuildsBeforeAcquire(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	_, err := loop.Tick(nil)
	require.NoError(t, err)

	old := factory.current()
	factory.extent = Extent2D{Width: 400, Height: 300}

	cont, err := loop.Tick(ResizeEvent{Width: 400, Height: 300})
	require.NoError(t, err)
	require.True(t, cont)

	require.Equal(t, uint64(2), loop.Generation())
	require.Equal(t, Viewport{Width: 400, Height: 300, MaxDepth: 1}, loop.Viewport())

	// The stale chain saw no acquire after the resize arrived.
	require.Equal(t, 1, old.acquires)
	chain := factory.current()
	require.Equal(t, 1, chain.acquires)
	require.Equal(t, 1, chain.presents)
	require.Equal(t, Viewport{Width: 400, Height: 300, MaxDepth: 1}, chain.encodes[0].viewport)
}

func TestAcquireOutOfDateSkipsTickAndRebuilds(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	chain := factory.current()
	chain.acquireErrs = []error{ErrOutOfDate}

	cont, err := loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Empty(t, chain.encodes)
	require.Equal(t, uint64(1), loop.Generation())

	cont, err = loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, uint64(2), loop.Generation())
	require.Equal(t, 1, factory.current().presents)
}

func TestAcquireFatalError(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	factory.current().acquireErrs = []error{fmt.Errorf("device lost")}

	_, err := loop.Tick(nil)
	require.Error(t, err)
}

func TestSuboptimalRendersThenRebuilds(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	chain := factory.current()
	chain.suboptimal = []bool{true}

	cont, err := loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)

	// The suboptimal image was still rendered and presented.
	require.Equal(t, 1, chain.presents)
	require.Equal(t, uint64(1), loop.Generation())

	_, err = loop.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), loop.Generation())
}

func TestSubmitOutOfDateDropsFrameAndRebuilds(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	chain := factory.current()
	chain.submitErrs = []error{ErrOutOfDate}

	cont, err := loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, 0, chain.presents)

	_, err = loop.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), loop.Generation())
	require.Equal(t, 1, factory.current().presents)
}

func TestSubmitLossyErrorKeepsLoopRunning(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	chain := factory.current()
	chain.submitErrs = []error{fmt.Errorf("transient queue hiccup")}

	cont, err := loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, 0, chain.presents)

	// No rebuild, the chain is still valid. The next submission depends on
	// a fresh already satisfied token, not the poisoned frame.
	cont, err = loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, uint64(1), loop.Generation())
	require.Equal(t, 1, chain.presents)
	require.True(t, chain.prevs[1].Satisfied())
	require.NotSame(t, chain.prevs[0], chain.prevs[1])
}

func TestZeroExtentDefersRebuild(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	factory.extent = Extent2D{}
	cont, err := loop.Tick(ResizeEvent{})
	require.NoError(t, err)
	require.True(t, cont)

	// Nothing was acquired against the stale chain and nothing was rebuilt.
	require.Equal(t, uint64(1), loop.Generation())
	require.Equal(t, 0, factory.current().acquires)
	require.Len(t, factory.chains, 1)

	// The surface comes back, the deferred rebuild happens.
	factory.extent = Extent2D{Width: 640, Height: 480}
	cont, err = loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, cont)
	require.Equal(t, uint64(2), loop.Generation())
	require.Equal(t, 1, factory.current().presents)
}

func TestCloseStopsLoop(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	cont, err := loop.Tick(CloseEvent{})
	require.NoError(t, err)
	require.False(t, cont)
	require.Equal(t, 0, factory.current().acquires)
}

func TestProviderErrorIsFatal(t *testing.T) {
	factory := newFakeFactory(800, 600)
	provider := &fakeProvider{err: fmt.Errorf("content unavailable")}
	loop, err := NewFrameLoop(factory, provider)
	require.NoError(t, err)

	_, err = loop.Tick(nil)
	require.Error(t, err)
}

func TestReclaimRunsReleasesNextTick(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	_, err := loop.Tick(nil)
	require.NoError(t, err)

	chain := factory.current()
	released := false
	chain.tokens[0].Attach(func() { released = true })

	_, err = loop.Tick(nil)
	require.NoError(t, err)
	require.True(t, released)
}

func TestContentFlowsIntoEncode(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	_, err := loop.Tick(nil)
	require.NoError(t, err)

	rec := factory.current().encodes[0]
	require.Equal(t, []byte{0xde, 0xad}, rec.content.Bind)
	require.Equal(t, []Draw{{VertexCount: 3, InstanceCount: 1}}, rec.content.Draws)
}

func TestDestroyWaitsAndTearsDown(t *testing.T) {
	loop, factory, _ := newTestLoop(t, 800, 600)

	_, err := loop.Tick(nil)
	require.NoError(t, err)

	loop.Destroy()
	require.True(t, factory.current().destroyed)
}
