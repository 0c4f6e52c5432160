package descriptor

import (
	"time"

	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"

	"github.com/KiritakeKumi/descant/suballoc"
)

// Opaque handles to objects owned by the native layer. The descriptor core
// never interprets them; they are identities to pass back to the Backend.
type (
	LayoutHandle        uint64
	PoolHandle          uint64
	SetHandle           uint64
	CommandBufferHandle uint64
	FenceHandle         uint64
	ResourceHandle      uint64
)

// LayoutBinding is one (slot, type, count, stages) tuple of a descriptor set
// layout. Two layouts are the same iff their binding sequences are
// element-wise equal.
type LayoutBinding struct {
	Binding int
	Type    core1_0.DescriptorType
	Count   int
	Stages  core1_0.ShaderStageFlags
}

// SetWrite is one native descriptor write: it points a binding of a set at a
// range of a resource.
type SetWrite struct {
	Set          SetHandle
	Binding      int
	ArrayElement int
	Type         core1_0.DescriptorType
	Resource     ResourceHandle
	Offset       int
	Range        int
}

// Backend is the capability interface this package consumes from the native
// graphics layer. Every method that can fail returns the native result code
// alongside the error so callers can distinguish recoverable pool exhaustion
// from fatal conditions.
//
// Backing memory for the suballocator comes through the embedded
// suballoc.MemorySource.
type Backend interface {
	suballoc.MemorySource

	CreateDescriptorSetLayout(bindings []LayoutBinding) (LayoutHandle, common.VkResult, error)
	DestroyDescriptorSetLayout(layout LayoutHandle)

	CreateDescriptorPool(sizes []core1_0.DescriptorPoolSize, maxSets int) (PoolHandle, common.VkResult, error)
	DestroyDescriptorPool(pool PoolHandle)
	AllocateDescriptorSets(pool PoolHandle, layout LayoutHandle, count int) ([]SetHandle, common.VkResult, error)
	UpdateDescriptorSets(writes []SetWrite)

	AllocateCommandBuffer() (CommandBufferHandle, common.VkResult, error)
	FreeCommandBuffer(commandBuffer CommandBufferHandle)

	CreateFence() (FenceHandle, common.VkResult, error)
	DestroyFence(fence FenceHandle)
	ResetFence(fence FenceHandle) (common.VkResult, error)

	SubmitCommandBuffer(commandBuffer CommandBufferHandle, fence FenceHandle) (common.VkResult, error)
	// FenceStatus returns VKSuccess when the fence has signaled and
	// VKNotReady when it has not.
	FenceStatus(fence FenceHandle) (common.VkResult, error)
	WaitForFence(fence FenceHandle, timeout time.Duration) (common.VkResult, error)
}
