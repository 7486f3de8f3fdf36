package vkloop

import (
	"fmt"
	"log"

	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain wraps the native swapchain handle together with the format and
// extent it was created with.
type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return nil, err
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{
			Device:   s.Device,
			VKImage:  swapchainImages[i],
			VKFormat: s.Format,
		}
	}

	return ret, nil
}

type CreateSwapchainOptions struct {
	OldSwapchain *Swapchain
	Extent       vk.Extent2D
}

// CreateSwapchain creates a FIFO swapchain on the given surface. FIFO is the
// only mode this engine uses: present requests queue and display in
// submission order, with no tearing.
func (d *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {

	modes, err := d.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	if len(modes.Filter(vk.PresentModeFifo)) == 0 {
		return nil, fmt.Errorf("surface does not support FIFO presentation")
	}

	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}

	var format vk.SurfaceFormat
	matched := formats.Filter(func(f vk.SurfaceFormat) bool {
		return f.Format == vk.FormatB8g8r8a8Unorm
	})
	if len(matched) > 0 {
		format = matched[0]
	} else {
		format = formats[0]
		format.Deref()
	}

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	caps.Deref()

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    caps.MinImageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      options.Extent,
		PresentMode:      vk.PresentModeFifo,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err = vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	return &Swapchain{
		VKSwapchain: swapchain,
		Device:      d,
		Extent:      options.Extent,
		Format:      format.Format,
	}, nil
}

// presentChain is one swapchain generation exposed to the frame loop. It
// owns the per image command buffers and the sync objects for the single
// frame in flight.
type presentChain struct {
	binding *SurfaceBinding
	sc      *Swapchain
	images  []*Image

	cmdBuffers []*CommandBuffer

	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	frameFence     vk.Fence

	// release callbacks collected during Encode, attached to the
	// submission's token or run on the drop paths
	releases []func()
}

var _ Presentable = (*presentChain)(nil)

func (p *presentChain) Extent() Extent2D {
	return Extent2D{Width: p.sc.Extent.Width, Height: p.sc.Extent.Height}
}

func (p *presentChain) Format() PixelFormat {
	return PixelFormat(p.sc.Format)
}

func (p *presentChain) ImageCount() int {
	return len(p.images)
}

// BuildTargets wraps every chain image in an image view and framebuffer.
// Targets are always built in full, image handles are not stable across
// chain recreation.
func (p *presentChain) BuildTargets() ([]RenderTarget, error) {
	targets := make([]RenderTarget, len(p.images))
	for i, image := range p.images {
		view, err := image.CreateImageView()
		if err != nil {
			return nil, fmt.Errorf("image %d view: %w", i, err)
		}

		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      p.binding.renderPass,
			Layers:          1,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view.VKImageView},
			Width:           p.sc.Extent.Width,
			Height:          p.sc.Extent.Height,
		}

		var framebuffer vk.Framebuffer
		err = vk.Error(vk.CreateFramebuffer(p.binding.Device.VKDevice, &fbCreateInfo, nil, &framebuffer))
		if err != nil {
			view.Destroy()
			return nil, fmt.Errorf("image %d framebuffer: %w", i, err)
		}

		targets[i] = &frameTarget{
			device:      p.binding.Device,
			view:        view,
			framebuffer: framebuffer,
		}
	}

	imageBytes := int64(p.sc.Extent.Width) * int64(p.sc.Extent.Height) * 4 * int64(len(p.images))
	log.Printf("render targets: %d images %dx%d (%s)",
		len(p.images), p.sc.Extent.Width, p.sc.Extent.Height, units.HumanSize(float64(imageBytes)))

	return targets, nil
}

// Acquire blocks until the next presentable image is available and
// classifies the result. The image available semaphore carries the GPU side
// of the returned Ready token.
func (p *presentChain) Acquire() (AcquireResult, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(p.binding.Device.VKDevice, p.sc.VKSwapchain, vk.MaxUint64,
		p.imageAvailable, vk.NullFence, &imageIndex)

	switch res {
	case vk.Success:
		return AcquireResult{ImageIndex: int(imageIndex), Ready: PendingToken(nil, nil)}, nil
	case vk.Suboptimal:
		return AcquireResult{ImageIndex: int(imageIndex), Suboptimal: true, Ready: PendingToken(nil, nil)}, nil
	case vk.ErrorOutOfDate:
		return AcquireResult{}, ErrOutOfDate
	default:
		return AcquireResult{}, vk.Error(res)
	}
}

func (p *presentChain) Encode(imageIndex int, target RenderTarget, viewport Viewport, content FrameContent) error {
	ft, ok := target.(*frameTarget)
	if !ok {
		return fmt.Errorf("render target is not a vulkan frame target")
	}

	cb := p.cmdBuffers[imageIndex]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.BeginOneTime(); err != nil {
		return err
	}

	cb.CmdBeginRenderPass(p.binding.renderPass, ft.framebuffer, p.sc.Extent, p.binding.ClearColor)
	cb.CmdSetViewportScissor(viewport, p.sc.Extent)

	p.releases = p.releases[:0]
	retain := func(release func()) {
		p.releases = append(p.releases, release)
	}

	if err := p.binding.Encoder.Encode(cb, content, retain); err != nil {
		return fmt.Errorf("encoding draw content: %w", err)
	}

	cb.CmdEndRenderPass()
	return cb.End()
}

// SubmitAndPresent chains prev and the acquire semaphore ahead of the
// recorded commands, presents the image and returns the token for the new
// submission. ErrOutOfDate is recoverable; any other error drops the frame
// but leaves the chain usable.
func (p *presentChain) SubmitAndPresent(imageIndex int, prev, acquired *CompletionToken) (*CompletionToken, error) {
	prev.Consume()
	if err := prev.Wait(); err != nil {
		return nil, fmt.Errorf("waiting on previous frame: %w", err)
	}
	acquired.Consume()

	d := p.binding.Device

	if err := d.VKResetFence(p.frameFence); err != nil {
		return nil, p.dropFrame(err, false)
	}

	err := p.binding.GraphicsQueue.Submit(p.cmdBuffers[imageIndex],
		p.imageAvailable, p.renderFinished, p.frameFence)
	if err != nil {
		return nil, p.dropFrame(fmt.Errorf("queue submit: %w", err), false)
	}

	res := p.binding.PresentQueue.Present(p.sc.VKSwapchain, uint32(imageIndex), p.renderFinished)
	switch res {
	case vk.Success, vk.Suboptimal:
		// Suboptimal still presented the frame; acquire reports it
		// again on the next tick and sets the stale flag there.
	case vk.ErrorOutOfDate:
		return nil, p.dropFrame(ErrOutOfDate, true)
	default:
		return nil, p.dropFrame(fmt.Errorf("queue present: %w", vk.Error(res)), true)
	}

	token := d.fenceToken(p.frameFence)
	for _, release := range p.releases {
		token.Attach(release)
	}
	p.releases = nil

	return token, nil
}

// dropFrame drains any submitted work, recycles this frame's transient
// resources and rebuilds the semaphores so a signaled image available
// semaphore from the failed frame cannot leak into the next acquire.
func (p *presentChain) dropFrame(cause error, submitted bool) error {
	d := p.binding.Device

	if submitted {
		if err := d.VKWaitForFence(p.frameFence); err != nil {
			log.Printf("draining dropped frame: %v", err)
		}
	} else {
		d.WaitIdle()
	}

	for _, release := range p.releases {
		release()
	}
	p.releases = nil

	d.VKDestroySemaphore(p.imageAvailable)
	d.VKDestroySemaphore(p.renderFinished)
	p.imageAvailable, _ = d.VKCreateSemaphore()
	p.renderFinished, _ = d.VKCreateSemaphore()

	return cause
}

func (p *presentChain) Destroy() {
	d := p.binding.Device
	d.WaitIdle()

	p.binding.pool.FreeBuffers(p.cmdBuffers)
	p.cmdBuffers = nil

	d.VKDestroySemaphore(p.imageAvailable)
	d.VKDestroySemaphore(p.renderFinished)
	d.VKDestroyFence(p.frameFence)

	p.sc.Destroy()
}

// frameTarget is one chain image wrapped as a color attachment.
type frameTarget struct {
	device      *Device
	view        *ImageView
	framebuffer vk.Framebuffer
}

func (t *frameTarget) Destroy() {
	vk.DestroyFramebuffer(t.device.VKDevice, t.framebuffer, nil)
	t.view.Destroy()
}
