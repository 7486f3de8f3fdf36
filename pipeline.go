package vkloop

import (
	vk "github.com/vulkan-go/vulkan"
)

type GraphicsPipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

func (p *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, err
	}

	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

// CreateGraphicsPipeline creates a graphics pipeline from the config against
// the given render pass. The cache may be nil.
func (d *Device) CreateGraphicsPipeline(config *GraphicsPipelineConfig, renderPass vk.RenderPass, cache *PipelineCache) (*GraphicsPipeline, error) {
	createInfo, err := config.VKGraphicsPipelineCreateInfo(renderPass)
	if err != nil {
		return nil, err
	}

	vkCache := vk.NullPipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(
		d.VKDevice, vkCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo},
		nil, pipelines))
	if err != nil {
		return nil, err
	}

	return &GraphicsPipeline{Device: d, VKPipeline: pipelines[0]}, nil
}
