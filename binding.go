package vkloop

import (
	"fmt"
	"log"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// FrameEncoder records application draw state for one frame: it binds the
// pipeline and the frame's data blob, then records the draws. Transient
// resources taken for the frame, such as a uniform ring slot, are handed to
// retain so they are recycled once the frame's GPU work completes.
type FrameEncoder interface {
	Encode(cb *CommandBuffer, content FrameContent, retain func(release func())) error
}

// SurfaceBinding ties a window surface to a device and queue and produces
// swapchain generations for the frame loop. It owns the render pass, which
// is format bound and shared by every generation.
type SurfaceBinding struct {
	Instance       *Instance
	PhysicalDevice *PhysicalDevice
	Device         *Device
	Surface        vk.Surface
	GraphicsQueue  *Queue
	PresentQueue   *Queue

	// Encoder must be set before the first chain is created.
	Encoder FrameEncoder

	// ClearColor is the render pass clear color, RGBA.
	ClearColor [4]float32

	pool             *CommandPool
	renderPass       vk.RenderPass
	renderPassFormat vk.Format
}

var _ ChainFactory = (*SurfaceBinding)(nil)

// BindSurface performs the one time bootstrap: instance, window surface,
// physical device pick, logical device with the swapchain extension, and a
// command pool on the graphics queue family. Failure here is fatal, there is
// nothing to recover to.
func BindSurface(app *App, window *glfw.Window) (*SurfaceBinding, error) {
	for _, ext := range window.GetRequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}

	surfacePtr, err := window.CreateWindowSurface(instance.VKInstance, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window surface: %w", err)
	}
	surface := vk.SurfaceFromPointer(surfacePtr)

	physicalDevices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(physicalDevices) == 0 {
		return nil, fmt.Errorf("no physical devices found")
	}

	pdevice := physicalDevices[0]
	log.Printf("using device: %s", pdevice)

	queueFamilies, err := pdevice.QueueFamilies()
	if err != nil {
		return nil, fmt.Errorf("loading queue families: %w", err)
	}

	gqueues := queueFamilies.FilterGraphicsAndPresent(surface)
	if len(gqueues) == 0 {
		return nil, fmt.Errorf("no graphics and present capable queue on device: %v", pdevice)
	}

	device, err := pdevice.CreateLogicalDeviceWithOptions(gqueues[:1], &CreateDeviceOptions{
		EnabledExtensions: []string{"VK_KHR_swapchain"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating device: %w", err)
	}

	queue := device.GetQueue(gqueues[0])

	pool, err := device.CreateCommandPool(gqueues[0])
	if err != nil {
		return nil, fmt.Errorf("creating command pool: %w", err)
	}

	return &SurfaceBinding{
		Instance:       instance,
		PhysicalDevice: pdevice,
		Device:         device,
		Surface:        surface,
		GraphicsQueue:  queue,
		PresentQueue:   queue,
		ClearColor:     [4]float32{0, 0, 1, 1},
		pool:           pool,
	}, nil
}

// MinImageExtent queries the surface's current minimum supported image
// extent. Some window managers report min and max extents that are
// identical, so the minimum is the dependable choice.
func (b *SurfaceBinding) MinImageExtent() (Extent2D, error) {
	caps, err := b.PhysicalDevice.GetSurfaceCapabilities(b.Surface)
	if err != nil {
		return Extent2D{}, err
	}
	caps.Deref()
	caps.MinImageExtent.Deref()

	return Extent2D{
		Width:  caps.MinImageExtent.Width,
		Height: caps.MinImageExtent.Height,
	}, nil
}

// CreateChain builds a new swapchain generation at the given extent, reusing
// the old generation's native handle when present. The old generation is not
// destroyed here, the lifecycle manager does that once the new one stands.
func (b *SurfaceBinding) CreateChain(extent Extent2D, old Presentable) (Presentable, error) {
	if b.Encoder == nil {
		return nil, fmt.Errorf("no frame encoder configured")
	}
	if extent.Zero() {
		return nil, ErrUnsupportedDimensions
	}

	options := &CreateSwapchainOptions{
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}
	if old != nil {
		if pc, ok := old.(*presentChain); ok {
			options.OldSwapchain = pc.sc
		}
		// The old generation's images may still be in flight.
		b.Device.WaitIdle()
	}

	sc, err := b.Device.CreateSwapchain(b.Surface, b.GraphicsQueue, b.PresentQueue, options)
	if err != nil {
		return nil, fmt.Errorf("creating swapchain: %w", err)
	}

	if err := b.ensureRenderPass(sc.Format); err != nil {
		sc.Destroy()
		return nil, err
	}

	images, err := sc.GetImages()
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("getting swapchain images: %w", err)
	}

	cmdBuffers, err := b.pool.AllocateBuffers(len(images))
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("allocating command buffers: %w", err)
	}

	imageAvailable, err := b.Device.VKCreateSemaphore()
	if err != nil {
		return nil, err
	}
	renderFinished, err := b.Device.VKCreateSemaphore()
	if err != nil {
		return nil, err
	}
	frameFence, err := b.Device.VKCreateFence(false)
	if err != nil {
		return nil, err
	}

	return &presentChain{
		binding:        b,
		sc:             sc,
		images:         images,
		cmdBuffers:     cmdBuffers,
		imageAvailable: imageAvailable,
		renderFinished: renderFinished,
		frameFence:     frameFence,
	}, nil
}

// ensureRenderPass creates the single subpass render pass for the chain
// format, or reuses the existing one when the format is unchanged across
// generations.
func (b *SurfaceBinding) ensureRenderPass(format vk.Format) error {
	if b.renderPass != vk.NullRenderPass {
		if b.renderPassFormat == format {
			return nil
		}
		b.Device.WaitIdle()
		vk.DestroyRenderPass(b.Device.VKDevice, b.renderPass, nil)
		b.renderPass = vk.NullRenderPass
	}

	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      subpasses,
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(b.Device.VKDevice, &createInfo, nil, &renderPass))
	if err != nil {
		return fmt.Errorf("creating render pass: %w", err)
	}

	b.renderPass = renderPass
	b.renderPassFormat = format
	return nil
}

// RenderPass returns the shared render pass. It exists once the first chain
// has been created.
func (b *SurfaceBinding) RenderPass() vk.RenderPass {
	return b.renderPass
}

// Destroy tears down the binding. The frame loop must have been destroyed
// first.
func (b *SurfaceBinding) Destroy() {
	b.Device.WaitIdle()

	if b.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(b.Device.VKDevice, b.renderPass, nil)
		b.renderPass = vk.NullRenderPass
	}

	b.pool.Destroy()

	vk.DestroySurface(b.Instance.VKInstance, b.Surface, nil)
	b.Device.Destroy()
	b.Instance.Destroy()
}
