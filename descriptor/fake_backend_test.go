package descriptor

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"

	"github.com/KiritakeKumi/descant/suballoc"
)

type fakePoolState struct {
	maxSets   int
	allocated int
}

// fakeBackend is a deterministic in-memory Backend. Fences signal only when a
// test asks them to, so batch completion order is fully controlled.
type fakeBackend struct {
	nextHandle uint64

	blocksCreated   int
	blocksDestroyed int
	layoutCreates   int
	layoutDestroys  int
	poolCreates     int
	poolDestroys    int
	setAllocs       int
	updateCalls     int

	pools   map[PoolHandle]*fakePoolState
	fences  map[FenceHandle]bool
	pending []FenceHandle

	writes []SetWrite

	exhaustNextSetAlloc bool
	failSubmit          bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pools:  make(map[PoolHandle]*fakePoolState),
		fences: make(map[FenceHandle]bool),
	}
}

func (f *fakeBackend) handle() uint64 {
	f.nextHandle++
	return f.nextHandle
}

// signalNext signals the oldest unsignaled fence, simulating the device
// finishing the oldest submission.
func (f *fakeBackend) signalNext() {
	if len(f.pending) == 0 {
		panic("no pending fences to signal")
	}
	f.fences[f.pending[0]] = true
	f.pending = f.pending[1:]
}

// signalAt signals the i-th pending fence out of order.
func (f *fakeBackend) signalAt(i int) {
	f.fences[f.pending[i]] = true
	f.pending = append(f.pending[:i], f.pending[i+1:]...)
}

func (f *fakeBackend) signalAll() {
	for len(f.pending) > 0 {
		f.signalNext()
	}
}

func (f *fakeBackend) CreateBlock(size int, flags suballoc.AllocFlags) (suballoc.BlockInfo, common.VkResult, error) {
	h := f.handle()
	f.blocksCreated++
	return suballoc.BlockInfo{
		Handle:        suballoc.BlockHandle(h),
		DeviceAddress: h << 32,
		Mapping:       make([]byte, size),
	}, core1_0.VKSuccess, nil
}

func (f *fakeBackend) DestroyBlock(handle suballoc.BlockHandle) {
	f.blocksDestroyed++
}

func (f *fakeBackend) CreateDescriptorSetLayout(bindings []LayoutBinding) (LayoutHandle, common.VkResult, error) {
	f.layoutCreates++
	return LayoutHandle(f.handle()), core1_0.VKSuccess, nil
}

func (f *fakeBackend) DestroyDescriptorSetLayout(layout LayoutHandle) {
	f.layoutDestroys++
}

func (f *fakeBackend) CreateDescriptorPool(sizes []core1_0.DescriptorPoolSize, maxSets int) (PoolHandle, common.VkResult, error) {
	h := PoolHandle(f.handle())
	f.pools[h] = &fakePoolState{maxSets: maxSets}
	f.poolCreates++
	return h, core1_0.VKSuccess, nil
}

func (f *fakeBackend) DestroyDescriptorPool(pool PoolHandle) {
	delete(f.pools, pool)
	f.poolDestroys++
}

func (f *fakeBackend) AllocateDescriptorSets(pool PoolHandle, layout LayoutHandle, count int) ([]SetHandle, common.VkResult, error) {
	if f.exhaustNextSetAlloc {
		f.exhaustNextSetAlloc = false
		return nil, core1_1.VkErrorOutOfPoolMemory, errors.New("out of pool memory")
	}

	state, ok := f.pools[pool]
	if !ok {
		return nil, core1_0.VKErrorUnknown, errors.New("unknown pool")
	}
	if state.allocated+count > state.maxSets {
		return nil, core1_1.VkErrorOutOfPoolMemory, errors.New("out of pool memory")
	}
	state.allocated += count

	handles := make([]SetHandle, count)
	for i := range handles {
		handles[i] = SetHandle(f.handle())
	}
	f.setAllocs += count
	return handles, core1_0.VKSuccess, nil
}

func (f *fakeBackend) UpdateDescriptorSets(writes []SetWrite) {
	f.updateCalls++
	f.writes = append(f.writes, writes...)
}

func (f *fakeBackend) AllocateCommandBuffer() (CommandBufferHandle, common.VkResult, error) {
	return CommandBufferHandle(f.handle()), core1_0.VKSuccess, nil
}

func (f *fakeBackend) FreeCommandBuffer(commandBuffer CommandBufferHandle) {}

func (f *fakeBackend) CreateFence() (FenceHandle, common.VkResult, error) {
	h := FenceHandle(f.handle())
	f.fences[h] = false
	return h, core1_0.VKSuccess, nil
}

func (f *fakeBackend) DestroyFence(fence FenceHandle) {
	delete(f.fences, fence)
}

func (f *fakeBackend) ResetFence(fence FenceHandle) (common.VkResult, error) {
	f.fences[fence] = false
	return core1_0.VKSuccess, nil
}

func (f *fakeBackend) SubmitCommandBuffer(commandBuffer CommandBufferHandle, fence FenceHandle) (common.VkResult, error) {
	if f.failSubmit {
		f.failSubmit = false
		return core1_0.VKErrorDeviceLost, errors.New("device lost")
	}
	f.pending = append(f.pending, fence)
	return core1_0.VKSuccess, nil
}

func (f *fakeBackend) FenceStatus(fence FenceHandle) (common.VkResult, error) {
	if f.fences[fence] {
		return core1_0.VKSuccess, nil
	}
	return core1_0.VKNotReady, nil
}

func (f *fakeBackend) WaitForFence(fence FenceHandle, timeout time.Duration) (common.VkResult, error) {
	// Waiting stands in for the device catching up: everything submitted up
	// to and including this fence finishes.
	for i, pending := range f.pending {
		if pending == fence {
			for _, p := range f.pending[:i+1] {
				f.fences[p] = true
			}
			f.pending = f.pending[i+1:]
			break
		}
	}
	if !f.fences[fence] {
		return core1_0.VKErrorUnknown, errors.New("fence was never submitted")
	}
	return core1_0.VKSuccess, nil
}

var _ Backend = (*fakeBackend)(nil)
