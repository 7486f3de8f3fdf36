package vkloop

import (
	"time"
)

// fakeTarget stands in for one chain image's attachment state.
type fakeTarget struct {
	destroyed bool
}

func (t *fakeTarget) Destroy() { t.destroyed = true }

type encodeRecord struct {
	imageIndex int
	viewport   Viewport
	content    FrameContent
}

// fakeChain scripts acquire and submit outcomes per call. Unscripted calls
// succeed.
type fakeChain struct {
	extent Extent2D
	format PixelFormat
	images int

	acquireErrs []error
	suboptimal  []bool
	submitErrs  []error

	acquires  int
	submits   int
	presents  int
	encodes   []encodeRecord
	prevs     []*CompletionToken
	tokens    []*CompletionToken
	targets   []*fakeTarget
	destroyed bool
}

func (c *fakeChain) Extent() Extent2D    { return c.extent }
func (c *fakeChain) Format() PixelFormat { return c.format }
func (c *fakeChain) ImageCount() int     { return c.images }

func (c *fakeChain) BuildTargets() ([]RenderTarget, error) {
	targets := make([]RenderTarget, c.images)
	for i := range targets {
		ft := &fakeTarget{}
		c.targets = append(c.targets, ft)
		targets[i] = ft
	}
	return targets, nil
}

func (c *fakeChain) Acquire() (AcquireResult, error) {
	i := c.acquires
	c.acquires++
	if i < len(c.acquireErrs) && c.acquireErrs[i] != nil {
		return AcquireResult{}, c.acquireErrs[i]
	}
	sub := i < len(c.suboptimal) && c.suboptimal[i]
	return AcquireResult{
		ImageIndex: i % c.images,
		Suboptimal: sub,
		Ready:      AlreadySatisfied(),
	}, nil
}

func (c *fakeChain) Encode(imageIndex int, target RenderTarget, viewport Viewport, content FrameContent) error {
	c.encodes = append(c.encodes, encodeRecord{imageIndex: imageIndex, viewport: viewport, content: content})
	return nil
}

func (c *fakeChain) SubmitAndPresent(imageIndex int, prev, acquired *CompletionToken) (*CompletionToken, error) {
	c.prevs = append(c.prevs, prev)
	prev.Consume()
	acquired.Consume()

	i := c.submits
	c.submits++
	if i < len(c.submitErrs) && c.submitErrs[i] != nil {
		return nil, c.submitErrs[i]
	}

	c.presents++
	tok := PendingToken(nil, func() bool { return true })
	c.tokens = append(c.tokens, tok)
	return tok, nil
}

func (c *fakeChain) Destroy() { c.destroyed = true }

// fakeFactory produces fakeChains at whatever extent the surface currently
// reports.
type fakeFactory struct {
	extent Extent2D
	format PixelFormat
	images int

	extentErr error
	createErr error

	chains []*fakeChain
	olds   []Presentable
}

func newFakeFactory(width, height uint32) *fakeFactory {
	return &fakeFactory{
		extent: Extent2D{Width: width, Height: height},
		format: 1,
		images: 3,
	}
}

func (f *fakeFactory) MinImageExtent() (Extent2D, error) {
	return f.extent, f.extentErr
}

func (f *fakeFactory) CreateChain(extent Extent2D, old Presentable) (Presentable, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if extent.Zero() {
		return nil, ErrUnsupportedDimensions
	}
	f.olds = append(f.olds, old)
	c := &fakeChain{extent: extent, format: f.format, images: f.images}
	f.chains = append(f.chains, c)
	return c, nil
}

func (f *fakeFactory) current() *fakeChain {
	return f.chains[len(f.chains)-1]
}

// fakeProvider hands out a fixed triangle draw and records elapsed values.
type fakeProvider struct {
	err     error
	elapsed []time.Duration
}

func (p *fakeProvider) FrameContent(elapsed time.Duration) (FrameContent, error) {
	p.elapsed = append(p.elapsed, elapsed)
	if p.err != nil {
		return FrameContent{}, p.err
	}
	return FrameContent{
		Bind:  []byte{0xde, 0xad},
		Draws: []Draw{{VertexCount: 3, InstanceCount: 1}},
	}, nil
}
