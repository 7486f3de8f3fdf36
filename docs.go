/*
Package vkloop manages the part of a Vulkan application that every
presentation loop needs and most get subtly wrong: the swapchain lifecycle
and the per frame acquire, submit and present protocol.

The swapchain in Vulkan is the revolving set of images the application renders
into and hands to the window system. It is not a durable object, the window
system invalidates it whenever the surface changes (a resize being the common
case) and the application is expected to notice, rebuild it and carry on
without crashing or leaking. Around the swapchain sits per frame
synchronization, acquire may complete before the image is actually ready,
present may report that the chain just went stale, and resources written for
a frame must not be touched again until the GPU is done with them.

This package splits the problem in two layers:

The core layer is plain Go. FrameLoop is the per frame state machine, it owns
the swapchain state, the viewport and the previous frame's completion token,
and advances one frame per Tick call. SwapchainState handles rebuild and
generation tracking. CompletionToken represents a frame's GPU completion, it
is single owner, waiting consumes it and release hooks attached to it run when
the frame is reclaimed. The core talks to the backend only through the
Presentable and ChainFactory interfaces, so it can be exercised without a GPU.

The backend layer wraps the Vulkan objects in the usual way, structs which
hold the native handle in a field prefixed with VK so applications can reach
the raw API when the wrapper falls short. SurfaceBinding ties a GLFW window
surface to an instance, device and queue and acts as the chain factory.
UniformRing provides recyclable per frame uniform slots whose lifetime rides
on the completion tokens.

A typical application does roughly:

	1. glfw init, create a window
	2. BindSurface to get instance, device, queues and a command pool
	3. build a pipeline against binding.RenderPass() after the first chain
	4. set binding.Encoder to record its draws
	5. call NewFrameLoop and Tick it once per iteration of the window loop

See examples/rotate for a complete program.
*/
package vkloop
