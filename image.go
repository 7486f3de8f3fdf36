package vkloop

import (
	vk "github.com/vulkan-go/vulkan"
)

// Image is a native image handle together with its format. Swapchain images
// are owned by the swapchain and are never destroyed individually.
type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
}
