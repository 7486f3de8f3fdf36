package vkloop

import (
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return nil, err
	}
	return fence, nil
}

func (d *Device) VKDestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

func (d *Device) VKGetFenceStatus(f vk.Fence) vk.Result {
	return vk.GetFenceStatus(d.VKDevice, f)
}

// VKWaitForFence blocks until the fence signals, with no timeout.
func (d *Device) VKWaitForFence(f vk.Fence) error {
	return vk.Error(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, vk.MaxUint64))
}

func (d *Device) VKResetFence(f vk.Fence) error {
	return vk.Error(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}))
}

// fenceToken wraps a fence as a completion token. The token's wait blocks
// with no timeout, the poll checks fence status without blocking.
func (d *Device) fenceToken(f vk.Fence) *CompletionToken {
	return PendingToken(
		func() error { return d.VKWaitForFence(f) },
		func() bool { return d.VKGetFenceStatus(f) == vk.Success },
	)
}
