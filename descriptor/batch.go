package descriptor

// BatchState is the lifecycle state of a command batch.
type BatchState int32

const (
	// BatchRecording accepts binds and draw records.
	BatchRecording BatchState = iota
	// BatchSubmitted is in flight on the device, waiting on its fence.
	BatchSubmitted
	// BatchCompleted has had its fence observed signaled and its references
	// released.
	BatchCompleted
	// BatchAborted was abandoned before submission after a hard allocation
	// failure; its references are released without touching the device.
	BatchAborted
)

var batchStateMapping = map[BatchState]string{
	BatchRecording: "BatchRecording",
	BatchSubmitted: "BatchSubmitted",
	BatchCompleted: "BatchCompleted",
	BatchAborted:   "BatchAborted",
}

func (s BatchState) String() string {
	return batchStateMapping[s]
}

const (
	accessRead uint8 = 1 << iota
	accessWrite
)

// pipeline indexes the attached-set slots: graphics and compute bind points
// carry independent current sets per kind.
type pipeline int

const (
	pipelineGraphics pipeline = iota
	pipelineCompute
	numPipelines
)

func pipelineFor(compute bool) pipeline {
	if compute {
		return pipelineCompute
	}
	return pipelineGraphics
}

// Batch is one recorded command stream: a command buffer, the fence that
// signals its completion, and every resource and descriptor set it keeps
// alive while in flight.
//
// A batch is mutated only by the recording goroutine while Recording and only
// by the completion path afterwards; the two never overlap for one batch.
type Batch struct {
	id    uint64
	state BatchState

	commandBuffer CommandBufferHandle
	fence         FenceHandle

	// resources maps every referenced resource to its access bits for this
	// batch. Each key holds one reference on the resource.
	resources map[*Resource]uint8

	// sets holds every checked-out entry, for release on completion.
	sets map[*SetEntry]struct{}

	// attached is the set currently bound per bind point and kind, used to
	// elide rebinds and rewrites while the state hash is unchanged.
	attached [numPipelines][NumKinds]*SetEntry

	drawCount int
	hasWork   bool
}

// ID returns the batch id. Ids start at 1 and increase with submission order;
// 0 is reserved to mean "no batch".
func (b *Batch) ID() uint64 { return b.id }

// State returns the current lifecycle state.
func (b *Batch) State() BatchState { return b.state }

// DrawCount returns the number of draws and dispatches recorded so far.
func (b *Batch) DrawCount() int { return b.drawCount }

// referenceResource adds a resource to the batch's hold set and stamps batch
// usage on it. The first reference from this batch takes a refcount hold.
func (b *Batch) referenceResource(res *Resource, write bool) {
	access, held := b.resources[res]
	if !held {
		res.refs.Add(1)
	}

	if write {
		access |= accessWrite
		usageSet(&res.writes, b.id)
	} else {
		access |= accessRead
		usageSet(&res.reads, b.id)
	}
	b.resources[res] = access
	b.hasWork = true
}

// addSet records a checked-out entry so completion can release it.
func (b *Batch) addSet(entry *SetEntry) {
	b.sets[entry] = struct{}{}
}

// SubmitHook receives lifecycle notifications for diagnostic breadcrumbs. It
// must be safe to call from the goroutine driving submission and completion.
type SubmitHook interface {
	OnSubmit(batchID uint64, drawCount int)
	OnComplete(batchID uint64)
}
