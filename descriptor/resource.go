package descriptor

import (
	"sync/atomic"

	"github.com/KiritakeKumi/descant/suballoc"
)

// slotRef names one tracker slot a resource is currently bound to, so the
// resource can invalidate exactly those states when its identity changes.
type slotRef struct {
	stage Stage
	kind  Kind
	slot  int
}

// Resource is the identity of a GPU resource as the descriptor core sees it:
// a native handle plus a generation counter that is bumped on every
// reallocation, so a new resource landing on a recycled handle never hashes
// the same as its predecessor.
type Resource struct {
	name       string
	handle     ResourceHandle
	generation uint32
	size       int

	// region is the suballocated backing for buffer resources created through
	// the manager; nil for resources whose storage lives elsewhere.
	region *suballoc.Region

	// refs counts CPU holders plus one per in-flight batch referencing this
	// resource.
	refs atomic.Int32

	// reads/writes hold the id of the most recent batch using this resource
	// in that way. Completion clears them by compare-and-swap, so a stale id
	// from an older batch never clobbers newer usage.
	reads  atomic.Uint64
	writes atomic.Uint64

	destroyed bool

	// bindings and setRefs are mutated only on the recording goroutine.
	bindings map[slotRef]struct{}
	setRefs  map[*SetEntry]struct{}
}

// NewResource wraps an externally created native resource for use with the
// descriptor core. The initial generation is 1.
func NewResource(name string, handle ResourceHandle, size int) *Resource {
	r := &Resource{
		name:       name,
		handle:     handle,
		generation: 1,
		size:       size,
		bindings:   make(map[slotRef]struct{}),
		setRefs:    make(map[*SetEntry]struct{}),
	}
	r.refs.Store(1)
	return r
}

// Name returns the debug name given at creation.
func (r *Resource) Name() string { return r.name }

// Handle returns the native handle.
func (r *Resource) Handle() ResourceHandle { return r.handle }

// Generation returns the current reallocation generation.
func (r *Resource) Generation() uint32 { return r.generation }

// Size returns the resource size in bytes.
func (r *Resource) Size() int { return r.size }

// InFlight reports whether any submitted-but-incomplete batch still
// references this resource.
func (r *Resource) InFlight() bool {
	return r.reads.Load() != 0 || r.writes.Load() != 0
}

func usageSet(u *atomic.Uint64, batchID uint64) {
	u.Store(batchID)
}

func usageUnset(u *atomic.Uint64, batchID uint64) {
	u.CompareAndSwap(batchID, 0)
}
