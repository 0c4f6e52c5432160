package suballoc

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// BackingBlock is a single large contiguous GPU-visible memory block. It is
// exclusively bump-allocated by the Suballocator until retired, then shared
// by the regions carved from it until the last reference is released.
type BackingBlock struct {
	handle        BlockHandle
	deviceAddress uint64
	mapping       []byte
	size          int

	refs       atomic.Int32
	source     MemorySource
	liveBlocks *atomic.Int64
}

func (b *BackingBlock) ref() {
	b.refs.Add(1)
}

func (b *BackingBlock) unref() {
	refs := b.refs.Add(-1)
	if refs < 0 {
		panic("backing block reference count went negative")
	}
	if refs == 0 {
		b.source.DestroyBlock(b.handle)
		b.liveBlocks.Add(-1)
	}
}

// Handle returns the native handle of the block.
func (b *BackingBlock) Handle() BlockHandle { return b.handle }

// Size returns the block size in bytes.
func (b *BackingBlock) Size() int { return b.size }

// Region is a refcounted slice of a BackingBlock. It holds a shared reference
// on the block; Free is the explicit release at the owning site.
type Region struct {
	block  *BackingBlock
	offset int
	size   int
	freed  bool
}

// Free releases this region's reference on its backing block. Freeing a
// region twice is a programming error and returns one.
func (r *Region) Free() error {
	if r.freed {
		return errors.New("region has already been freed")
	}
	r.freed = true
	r.block.unref()
	return nil
}

// Map returns the CPU-visible bytes of this region within its block's
// persistent mapping, or nil when the MemorySource does not map blocks.
func (r *Region) Map() []byte {
	if r.block.mapping == nil {
		return nil
	}
	return r.block.mapping[r.offset : r.offset+r.size]
}

// DeviceAddress returns the GPU-visible address of the start of this region.
func (r *Region) DeviceAddress() uint64 {
	return r.block.deviceAddress + uint64(r.offset)
}

// Offset returns the region's byte offset within its backing block.
func (r *Region) Offset() int { return r.offset }

// Size returns the region size in bytes.
func (r *Region) Size() int { return r.size }

// Block returns the backing block this region was carved from.
func (r *Region) Block() *BackingBlock { return r.block }

// RegionJsonData populates a json object with information about this region
func (r *Region) RegionJsonData(json jwriter.ObjectState) {
	json.Name("Block").Int(int(r.block.handle))
	json.Name("Offset").Int(r.offset)
	json.Name("Size").Int(r.size)
	json.Name("Freed").Bool(r.freed)
}
