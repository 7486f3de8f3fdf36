package vkloop

import (
	"fmt"
	"log"
	"sync"

	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// UniformRing hands out per frame uniform slots. Each slot is a host visible
// buffer with a descriptor set already pointing at it. A slot taken for a
// frame must be released once the frame's GPU work completes, which the frame
// loop does through the completion token's release hooks.
type UniformRing struct {
	Device *Device
	Layout *DescriptorSetLayout

	pool  *DescriptorPool
	slots []*uniformSlot

	mu   sync.Mutex
	free []int
}

type uniformSlot struct {
	buffer *Buffer
	memory *DeviceMemory
	set    *DescriptorSet
}

// CreateUniformRing builds count slots of slotSize bytes each, bound as
// uniform buffers at binding 0 for the given shader stages.
func (d *Device) CreateUniformRing(count int, slotSize uint64, stages vk.ShaderStageFlags) (*UniformRing, error) {
	layout := d.NewDescriptorSetLayout()
	layout.AddBinding(vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      stages,
	})
	if _, err := d.CreateDescriptorSetLayout(layout); err != nil {
		return nil, fmt.Errorf("creating uniform layout: %w", err)
	}

	pool := d.NewDescriptorPool()
	pool.AddPoolSize(vk.DescriptorTypeUniformBuffer, count)
	if _, err := d.CreateDescriptorPool(pool, count); err != nil {
		layout.Destroy()
		return nil, fmt.Errorf("creating uniform pool: %w", err)
	}

	ring := &UniformRing{
		Device: d,
		Layout: layout,
		pool:   pool,
	}

	for i := 0; i < count; i++ {
		buffer, memory, err := d.CreateHostBuffer(slotSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
		if err != nil {
			ring.Destroy()
			return nil, fmt.Errorf("creating uniform slot %d: %w", i, err)
		}

		set, err := pool.Allocate(layout)
		if err != nil {
			buffer.Destroy()
			memory.Destroy()
			ring.Destroy()
			return nil, fmt.Errorf("allocating uniform set %d: %w", i, err)
		}
		set.AddBuffer(0, vk.DescriptorTypeUniformBuffer, buffer, 0)
		set.Write()

		ring.slots = append(ring.slots, &uniformSlot{buffer: buffer, memory: memory, set: set})
		ring.free = append(ring.free, i)
	}

	log.Printf("uniform ring ready: %d slots of %s", count, units.HumanSize(float64(slotSize)))
	return ring, nil
}

// Next copies data into a free slot and returns its descriptor set together
// with the release that recycles the slot. Attach the release to the frame's
// completion token so the slot is not reused while the GPU still reads it.
func (u *UniformRing) Next(data []byte) (*DescriptorSet, func(), error) {
	u.mu.Lock()
	if len(u.free) == 0 {
		u.mu.Unlock()
		return nil, nil, fmt.Errorf("uniform ring exhausted, a prior frame was not reclaimed")
	}
	idx := u.free[len(u.free)-1]
	u.free = u.free[:len(u.free)-1]
	u.mu.Unlock()

	slot := u.slots[idx]
	if uint64(len(data)) > slot.buffer.Size {
		u.release(idx)
		return nil, nil, fmt.Errorf("uniform data of %d bytes exceeds slot size %d", len(data), slot.buffer.Size)
	}

	if err := slot.memory.MapCopyUnmap(data); err != nil {
		u.release(idx)
		return nil, nil, fmt.Errorf("writing uniform slot: %w", err)
	}

	return slot.set, func() { u.release(idx) }, nil
}

func (u *UniformRing) release(idx int) {
	u.mu.Lock()
	u.free = append(u.free, idx)
	u.mu.Unlock()
}

func (u *UniformRing) Destroy() {
	for _, slot := range u.slots {
		slot.set.Free()
		slot.buffer.Destroy()
		slot.memory.Destroy()
	}
	u.slots = nil
	u.pool.Destroy()
	u.Layout.Destroy()
}
