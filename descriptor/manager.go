package descriptor

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"

	"github.com/KiritakeKumi/descant/descutils"
	"github.com/KiritakeKumi/descant/internal/utils"
	"github.com/KiritakeKumi/descant/suballoc"
)

const fenceWaitForever = time.Duration(math.MaxInt64)

// maxSlots bounds binding slots so (stage, slot) packs into a stable native
// binding number.
const maxSlots = 1 << 8

// retiredRegion is a backing region replaced while still visible to an
// in-flight batch; it is freed once that batch completes.
type retiredRegion struct {
	region  *suballoc.Region
	batchID uint64
}

// logBreadcrumbs is the default SubmitHook when breadcrumbs are enabled in
// config: it logs submission markers so a device loss can be bracketed to a
// batch.
type logBreadcrumbs struct {
	logger *slog.Logger
}

func (h logBreadcrumbs) OnSubmit(batchID uint64, drawCount int) {
	h.logger.Info("batch submitted",
		slog.Uint64("batch", batchID),
		slog.Int("draws", drawCount),
	)
}

func (h logBreadcrumbs) OnComplete(batchID uint64) {
	h.logger.Info("batch completed", slog.Uint64("batch", batchID))
}

// Manager is the top-level object: it owns the suballocator, the layout and
// pool caches, the binding state tracker, and the batch lifecycle. All public
// methods are safe for concurrent use unless the config promises external
// synchronization.
type Manager struct {
	logger  *slog.Logger
	backend Backend

	mode           Mode
	idlePoolFrames int
	hook           SubmitHook

	mutex utils.OptionalMutex

	suballocator *suballoc.Suballocator
	layouts      *LayoutCache
	pools        *PoolCache
	tracker      StateTracker

	current       *Batch
	inFlight      []*Batch
	nextBatchID   uint64
	lastCompleted uint64

	retired    []retiredRegion
	freeFences []FenceHandle

	stats         descutils.CacheStatistics
	resourcesLive int
}

// NewManager creates a Manager over a Backend. hook may be nil; when it is
// and config.Breadcrumbs is set, submission markers are logged instead.
func NewManager(logger *slog.Logger, backend Backend, config Config, hook SubmitHook) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("a Backend is required to create a Manager")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseMode(config.Mode)
	if err != nil {
		return nil, err
	}

	// The manager's own lock serializes every path into the suballocator.
	sub, err := suballoc.New(logger, backend, suballoc.CreateOptions{
		DefaultBlockSize:       config.DefaultBackingSize,
		ExternallySynchronized: true,
	})
	if err != nil {
		return nil, err
	}

	if hook == nil && config.Breadcrumbs {
		hook = logBreadcrumbs{logger: logger}
	}

	m := &Manager{
		logger:         logger,
		backend:        backend,
		mode:           mode,
		idlePoolFrames: config.IdlePoolFrames,
		hook:           hook,
		mutex:          utils.OptionalMutex{UseMutex: !config.ExternallySynchronized},
		suballocator:   sub,
		layouts:        newLayoutCache(logger, backend),
		nextBatchID:    1,
	}
	m.pools = newPoolCache(logger, backend, config.MaxSetsPerPool, config.MaxSetsPerGroup, config.sizeMultipliers(), &m.stats)
	return m, nil
}

// BindResource points a tracker slot at a range of a resource. A nil resource
// clears the slot. Binding only dirties state; descriptor sets are produced
// at draw time (or at batch begin in eager mode).
func (m *Manager) BindResource(stage Stage, kind Kind, slot int, res *Resource, offset, length int) error {
	if stage < 0 || stage >= NumStages {
		return errors.Newf("invalid stage %d", stage)
	}
	if kind < 0 || kind >= NumKinds {
		return errors.Newf("invalid descriptor kind %d", kind)
	}
	if slot < 0 || slot >= maxSlots {
		return errors.Newf("binding slot %d out of range", slot)
	}
	if res != nil && res.destroyed {
		return errors.Newf("resource %q has been destroyed", res.name)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	prev := m.tracker.Bind(stage, kind, slot, res, offset, length)
	ref := slotRef{stage: stage, kind: kind, slot: slot}
	if prev != nil && prev != res {
		delete(prev.bindings, ref)
	}
	if res != nil {
		res.bindings[ref] = struct{}{}
	}
	return nil
}

// BeginBatch opens a new recording batch. Only one batch records at a time.
// In eager mode the currently bound state is checked out immediately.
func (m *Manager) BeginBatch() (*Batch, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current != nil {
		return nil, errors.Newf("batch %d is still recording", m.current.id)
	}

	cmd, res, err := m.backend.AllocateCommandBuffer()
	if err != nil {
		return nil, wrapResult(res, err)
	}
	fence, err := m.acquireFence()
	if err != nil {
		m.backend.FreeCommandBuffer(cmd)
		return nil, err
	}

	b := &Batch{
		id:            m.nextBatchID,
		state:         BatchRecording,
		commandBuffer: cmd,
		fence:         fence,
		resources:     make(map[*Resource]uint8),
		sets:          make(map[*SetEntry]struct{}),
	}
	m.nextBatchID++
	m.current = b

	if m.mode == ModeEager {
		if _, err := m.updateAll(false); err != nil {
			m.abortLocked(b)
			return nil, err
		}
		if _, err := m.updateAll(true); err != nil {
			m.abortLocked(b)
			return nil, err
		}
	}
	return b, nil
}

// RecordDraw brings the graphics descriptor sets up to date with the bound
// state and counts a draw on the current batch.
func (m *Manager) RecordDraw() (common.VkResult, error) {
	return m.record(false)
}

// RecordDispatch is RecordDraw for the compute bind point.
func (m *Manager) RecordDispatch() (common.VkResult, error) {
	return m.record(true)
}

func (m *Manager) record(compute bool) (common.VkResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return core1_0.VKErrorUnknown, errors.New("no batch is recording")
	}
	res, err := m.updateAll(compute)
	if err != nil {
		return res, err
	}
	m.current.drawCount++
	m.current.hasWork = true
	return core1_0.VKSuccess, nil
}

func (m *Manager) updateAll(compute bool) (common.VkResult, error) {
	for kind := Kind(0); kind < NumKinds; kind++ {
		if res, err := m.updateKind(kind, compute); err != nil {
			return res, err
		}
	}
	return core1_0.VKSuccess, nil
}

// updateKind makes the attached set for one (bind point, kind) match the
// bound state: a no-op when the attached entry's stamped state already
// matches, a cache hit when another entry does, and a populate-and-commit
// otherwise.
func (m *Manager) updateKind(kind Kind, compute bool) (common.VkResult, error) {
	b := m.current
	pipe := pipelineFor(compute)

	key, hash, any := m.tracker.ProgramKey(kind, compute)
	if !any {
		b.attached[pipe][kind] = nil
		return core1_0.VKSuccess, nil
	}

	if att := b.attached[pipe][kind]; att != nil && !att.invalid && att.key == key {
		return core1_0.VKSuccess, nil
	}

	layout, res, err := m.layouts.GetOrCreate(m.tracker.LayoutBindings(kind, compute))
	if err != nil {
		return res, err
	}

	entry, needsWrite, res, err := m.pools.Checkout(layout, key, hash, b.id)
	if errors.Is(err, errPoolCapacity) {
		if err = m.reclaimForCapacity(layout); err != nil {
			return res, err
		}
		entry, needsWrite, res, err = m.pools.Checkout(layout, key, hash, b.id)
	}
	if err != nil {
		return res, err
	}

	if needsWrite {
		writes, resources := m.buildWrites(entry, kind, compute)
		if len(writes) != len(layout.Bindings()) {
			m.pools.abandon(entry, b.id)
			return core1_0.VKErrorUnknown, errors.Mark(
				errors.Newf("%d writes against a %d-binding layout", len(writes), len(layout.Bindings())),
				ErrLayoutMismatch)
		}
		m.backend.UpdateDescriptorSets(writes)
		m.pools.Commit(entry, key, hash, resources)
	}

	m.tracker.visitBound(kind, compute, func(_ Stage, _ int, s *boundSlot) {
		b.referenceResource(s.res, kind.IsWritten())
	})
	b.addSet(entry)
	b.attached[pipe][kind] = entry
	return core1_0.VKSuccess, nil
}

func (m *Manager) buildWrites(entry *SetEntry, kind Kind, compute bool) ([]SetWrite, []*Resource) {
	var writes []SetWrite
	var resources []*Resource
	m.tracker.visitBound(kind, compute, func(stage Stage, slot int, s *boundSlot) {
		writes = append(writes, SetWrite{
			Set:      entry.handle,
			Binding:  bindingNumber(stage, slot),
			Type:     kind.NativeType(),
			Resource: s.res.handle,
			Offset:   s.offset,
			Range:    s.length,
		})
		resources = append(resources, s.res)
	})
	return writes, resources
}

// reclaimForCapacity relieves set-cap pressure on one layout group: wait for
// the oldest in-flight batch, then recycle idle entries. Fails when the
// current batch alone holds the whole cap.
func (m *Manager) reclaimForCapacity(layout *Layout) error {
	g := m.pools.groupFor(layout)
	m.logger.Debug("descriptor set cap reached, reclaiming",
		slog.Int("allocated", g.allocated),
	)

	if len(m.inFlight) > 0 {
		if err := m.waitOldestLocked(); err != nil {
			return err
		}
	}
	if len(g.recycled) == 0 && len(g.unused) == 0 {
		m.pools.Scavenge(g, setBucketSize(g.allocated))
	}
	if len(g.recycled) == 0 && len(g.unused) == 0 {
		return errors.Newf("descriptor set cap %d exhausted by sets still in use", g.allocated)
	}
	return nil
}

// FlushBatch submits the recording batch. On a submission failure the batch
// is aborted and never left half-submitted.
func (m *Manager) FlushBatch(b *Batch) (common.VkResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if b == nil || b != m.current {
		return core1_0.VKErrorUnknown, errors.New("batch is not the recording batch")
	}

	res, err := m.backend.SubmitCommandBuffer(b.commandBuffer, b.fence)
	if err != nil {
		m.abortLocked(b)
		return res, wrapResult(res, err)
	}

	b.state = BatchSubmitted
	m.inFlight = append(m.inFlight, b)
	m.current = nil
	if m.hook != nil {
		m.hook.OnSubmit(b.id, b.drawCount)
	}
	return res, nil
}

// DiscardBatch abandons the recording batch without submitting it, releasing
// everything it referenced. Used after hard allocation failures.
func (m *Manager) DiscardBatch(b *Batch) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if b == nil || b != m.current {
		return errors.New("batch is not the recording batch")
	}
	m.abortLocked(b)
	return nil
}

// releaseBatchHolds drops every set checkout and resource hold a batch took.
func (m *Manager) releaseBatchHolds(b *Batch) {
	for entry := range b.sets {
		m.pools.Release(entry, b.id)
	}
	for res, access := range b.resources {
		if access&accessRead != 0 {
			usageUnset(&res.reads, b.id)
		}
		if access&accessWrite != 0 {
			usageUnset(&res.writes, b.id)
		}
		m.unrefResourceLocked(res)
	}
}

func (m *Manager) abortLocked(b *Batch) {
	m.releaseBatchHolds(b)
	m.backend.FreeCommandBuffer(b.commandBuffer)
	m.freeFences = append(m.freeFences, b.fence)
	b.state = BatchAborted
	if m.current == b {
		m.current = nil
	}
	m.drainRetiredLocked()
}

// completeLocked retires the oldest in-flight batch. Batches complete
// strictly in submission order.
func (m *Manager) completeLocked(b *Batch) {
	m.inFlight = m.inFlight[1:]

	m.releaseBatchHolds(b)
	m.backend.FreeCommandBuffer(b.commandBuffer)
	m.freeFences = append(m.freeFences, b.fence)

	b.state = BatchCompleted
	m.lastCompleted = b.id

	m.drainRetiredLocked()
	m.pools.ReclaimIdle(m.idlePoolFrames, b.id)
	if m.hook != nil {
		m.hook.OnComplete(b.id)
	}
}

func (m *Manager) drainRetiredLocked() {
	kept := m.retired[:0]
	for _, r := range m.retired {
		if r.batchID > m.lastCompleted {
			kept = append(kept, r)
			continue
		}
		if err := r.region.Free(); err != nil {
			m.logger.Warn("failed to free a retired backing region", slog.Any("error", err))
		}
	}
	m.retired = kept
}

// PollCompletions checks fences of in-flight batches in submission order and
// completes every batch whose fence has signaled. Returns how many completed.
func (m *Manager) PollCompletions() (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	count := 0
	for len(m.inFlight) > 0 {
		b := m.inFlight[0]
		res, err := m.backend.FenceStatus(b.fence)
		if err != nil {
			return count, wrapResult(res, err)
		}
		if res != core1_0.VKSuccess {
			break
		}
		m.completeLocked(b)
		count++
	}
	return count, nil
}

func (m *Manager) waitOldestLocked() error {
	b := m.inFlight[0]
	res, err := m.backend.WaitForFence(b.fence, fenceWaitForever)
	if err != nil {
		return wrapResult(res, err)
	}
	m.completeLocked(b)
	return nil
}

// WaitForBatch blocks until the batch with the given id has completed. Ids of
// batches that were never submitted are an error.
func (m *Manager) WaitForBatch(id uint64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for m.lastCompleted < id {
		if len(m.inFlight) == 0 {
			return errors.Newf("batch %d is not in flight", id)
		}
		if err := m.waitOldestLocked(); err != nil {
			return err
		}
	}
	return nil
}

// WaitIdle blocks until every in-flight batch has completed.
func (m *Manager) WaitIdle() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for len(m.inFlight) > 0 {
		if err := m.waitOldestLocked(); err != nil {
			return err
		}
	}
	return nil
}

// CreateBuffer allocates a buffer resource over the suballocator. The region's
// device address doubles as the native handle.
func (m *Manager) CreateBuffer(name string, size int, align uint) (*Resource, common.VkResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	region, res, err := m.suballocator.Alloc(size, align)
	if err != nil {
		return nil, res, wrapResult(res, err)
	}
	descutils.DebugValidate(m.suballocator)

	r := NewResource(name, ResourceHandle(region.DeviceAddress()), size)
	r.region = region
	m.resourcesLive++
	return r, res, nil
}

// ReallocateBuffer moves a buffer resource to fresh, larger backing. The
// generation bump makes every cached state and set referencing the old
// identity stale; the old region is retired until in-flight readers drain.
func (m *Manager) ReallocateBuffer(r *Resource, newSize int, align uint) (common.VkResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r.destroyed {
		return core1_0.VKErrorUnknown, errors.Newf("resource %q has been destroyed", r.name)
	}

	region, res, err := m.suballocator.Alloc(newSize, align)
	if err != nil {
		return res, wrapResult(res, err)
	}

	if old := r.region; old != nil {
		if r.InFlight() {
			m.retired = append(m.retired, retiredRegion{region: old, batchID: lastUsage(r)})
		} else if err := old.Free(); err != nil {
			m.logger.Warn("failed to free a replaced backing region", slog.Any("error", err))
		}
	}

	r.region = region
	r.handle = ResourceHandle(region.DeviceAddress())
	r.size = newSize
	r.generation++
	m.invalidateResourceLocked(r)
	return res, nil
}

func lastUsage(r *Resource) uint64 {
	reads := r.reads.Load()
	writes := r.writes.Load()
	if writes > reads {
		return writes
	}
	return reads
}

// invalidateResourceLocked dirties every tracker state the resource is bound
// to and punts every cached set stamped with its old identity.
func (m *Manager) invalidateResourceLocked(r *Resource) {
	for ref := range r.bindings {
		m.tracker.Invalidate(ref.stage, ref.kind)
	}
	for entry := range r.setRefs {
		m.pools.Invalidate(entry)
	}
}

// DestroyResource drops the creator's hold on a resource. Destruction is
// epoch-safe: backing is released only once no in-flight batch references the
// resource.
func (m *Manager) DestroyResource(r *Resource) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r.destroyed {
		return errors.Newf("resource %q destroyed twice", r.name)
	}
	r.destroyed = true

	for ref := range r.bindings {
		m.tracker.Bind(ref.stage, ref.kind, ref.slot, nil, 0, 0)
		delete(r.bindings, ref)
	}
	for entry := range r.setRefs {
		m.pools.Invalidate(entry)
	}

	m.unrefResourceLocked(r)
	return nil
}

func (m *Manager) unrefResourceLocked(r *Resource) {
	if r.refs.Add(-1) > 0 {
		return
	}
	if r.region != nil {
		if err := r.region.Free(); err != nil {
			m.logger.Warn("failed to free a resource's backing region",
				slog.String("resource", r.name),
				slog.Any("error", err),
			)
		}
		r.region = nil
	}
	m.resourcesLive--
}

// SuballocAlloc carves a raw region from the shared suballocator, for callers
// that manage their own upload staging.
func (m *Manager) SuballocAlloc(size int, align uint) (*suballoc.Region, common.VkResult, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.suballocator.Alloc(size, align)
}

// Statistics returns a snapshot of cache counters.
func (m *Manager) Statistics() descutils.CacheStatistics {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats := m.stats
	stats.LayoutCount = m.layouts.Count()
	return stats
}

// Destroy tears the manager down: the recording batch is discarded, in-flight
// batches are drained, and every cache and fence is released.
func (m *Manager) Destroy() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current != nil {
		m.abortLocked(m.current)
	}
	for len(m.inFlight) > 0 {
		if err := m.waitOldestLocked(); err != nil {
			return err
		}
	}

	m.pools.Destroy()
	m.layouts.Destroy()
	for _, f := range m.freeFences {
		m.backend.DestroyFence(f)
	}
	m.freeFences = nil

	m.drainRetiredLocked()
	m.suballocator.Destroy()

	if m.resourcesLive > 0 {
		m.logger.Warn("manager destroyed with undestroyed resources",
			slog.Int("resources", m.resourcesLive))
	}
	return nil
}

func (m *Manager) acquireFence() (FenceHandle, error) {
	if n := len(m.freeFences); n > 0 {
		f := m.freeFences[n-1]
		m.freeFences = m.freeFences[:n-1]
		if res, err := m.backend.ResetFence(f); err != nil {
			m.backend.DestroyFence(f)
			return 0, wrapResult(res, err)
		}
		return f, nil
	}

	f, res, err := m.backend.CreateFence()
	if err != nil {
		return 0, wrapResult(res, err)
	}
	return f, nil
}
