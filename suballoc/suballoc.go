package suballoc

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"

	"github.com/KiritakeKumi/descant/descutils"
	"github.com/KiritakeKumi/descant/internal/utils"
)

// BlockHandle is an opaque handle to a backing memory block owned by the
// native layer.
type BlockHandle uint64

// AllocFlags are passed through to the MemorySource on every block creation.
// Their meaning belongs to the native layer.
type AllocFlags uint32

// BlockInfo describes a backing block created by a MemorySource. Mapping is
// the block's persistent CPU mapping; nil when the source does not map its
// blocks.
type BlockInfo struct {
	Handle        BlockHandle
	DeviceAddress uint64
	Mapping       []byte
}

// MemorySource is the capability interface the suballocator consumes: create
// and destroy large GPU-visible memory blocks. Blocks are mapped once at
// creation and never move, which is what makes bump suballocation safe.
type MemorySource interface {
	CreateBlock(size int, flags AllocFlags) (BlockInfo, common.VkResult, error)
	DestroyBlock(handle BlockHandle)
}

// CreateOptions contains optional settings when creating a Suballocator
type CreateOptions struct {
	// DefaultBlockSize is the backing block size used when a request does not
	// exceed it. Requests larger than this get a dedicated block.
	DefaultBlockSize int
	// Flags are forwarded to the MemorySource on block creation
	Flags AllocFlags
	// ExternallySynchronized disables internal locking. The consumer must
	// guarantee single-threaded use or synchronize by some other mechanism.
	ExternallySynchronized bool
}

const defaultBlockSize = 128 * 1024

// Suballocator carves fixed-size backing blocks into smaller refcounted
// regions using bump allocation: no free list, no reclamation within a block.
// A block is returned to the MemorySource only when its last region is freed
// and the suballocator no longer bump-allocates from it.
type Suballocator struct {
	logger *slog.Logger
	source MemorySource

	defaultSize int
	flags       AllocFlags

	mutex      utils.OptionalRWMutex
	current    *BackingBlock
	nextOffset int

	liveBlocks    atomic.Int64
	blocksCreated int
	blockBytes    int
	regionsServed int
	regionBytes   int
	regionSizeMin int
	regionSizeMax int
}

// New creates a Suballocator over the provided MemorySource.
func New(logger *slog.Logger, source MemorySource, options CreateOptions) (*Suballocator, error) {
	if source == nil {
		return nil, errors.New("a MemorySource is required to create a Suballocator")
	}

	size := options.DefaultBlockSize
	if size == 0 {
		size = defaultBlockSize
	} else if size < 0 {
		return nil, errors.Newf("invalid DefaultBlockSize %d", options.DefaultBlockSize)
	}

	return &Suballocator{
		logger:      logger,
		source:      source,
		defaultSize: size,
		flags:       options.Flags,
		mutex:       utils.OptionalRWMutex{UseMutex: !options.ExternallySynchronized},
	}, nil
}

// Alloc carves a region of at least size bytes at the requested alignment.
// Alignment must be a power of two. Fails only when the MemorySource cannot
// produce a new backing block.
func (s *Suballocator) Alloc(size int, align uint) (*Region, common.VkResult, error) {
	if size <= 0 {
		return nil, core1_0.VKErrorUnknown, errors.Newf("invalid suballocation size %d", size)
	}
	if align == 0 {
		align = 1
	}
	err := descutils.CheckPow2(align, "align")
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.current != nil {
		offset := descutils.AlignUp(s.nextOffset, align)
		if offset+size <= s.current.size {
			s.nextOffset = offset + size
			return s.carve(offset, size), core1_0.VKSuccess, nil
		}

		// Retired: the block survives only while outstanding regions hold it.
		s.current.unref()
		s.current = nil
		s.nextOffset = 0
	}

	blockSize := size
	if blockSize < s.defaultSize {
		blockSize = s.defaultSize
	}

	info, res, err := s.source.CreateBlock(blockSize, s.flags)
	if err != nil {
		return nil, res, errors.Wrapf(err, "failed to create a %d-byte backing allocation", blockSize)
	}

	s.current = &BackingBlock{
		handle:        info.Handle,
		deviceAddress: info.DeviceAddress,
		mapping:       info.Mapping,
		size:          blockSize,
		source:        s.source,
		liveBlocks:    &s.liveBlocks,
	}
	s.current.refs.Store(1)
	s.liveBlocks.Add(1)
	s.blocksCreated++
	s.blockBytes += blockSize
	s.nextOffset = size

	return s.carve(0, size), core1_0.VKSuccess, nil
}

func (s *Suballocator) carve(offset, size int) *Region {
	s.regionsServed++
	s.regionBytes += size
	if s.regionSizeMin == 0 || size < s.regionSizeMin {
		s.regionSizeMin = size
	}
	if size > s.regionSizeMax {
		s.regionSizeMax = size
	}

	s.current.ref()
	return &Region{
		block:  s.current,
		offset: offset,
		size:   size,
	}
}

// Destroy releases the suballocator's hold on its current backing block. The
// block is destroyed once outstanding regions release it.
func (s *Suballocator) Destroy() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.current != nil {
		s.current.unref()
		s.current = nil
		s.nextOffset = 0
	}

	if live := s.liveBlocks.Load(); live > 0 && s.logger != nil {
		s.logger.Warn("suballocator destroyed with backing blocks still held by live regions",
			slog.Int64("liveBlocks", live))
	}
}

// LiveBlockCount returns the number of backing blocks that have not yet been
// returned to the MemorySource.
func (s *Suballocator) LiveBlockCount() int {
	return int(s.liveBlocks.Load())
}

// AddStatistics sums this suballocator's usage into the provided statistics.
func (s *Suballocator) AddStatistics(stats *descutils.Statistics) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats.BlockCount += s.blocksCreated
	stats.BlockBytes += s.blockBytes
	stats.RegionCount += s.regionsServed
	stats.RegionBytes += s.regionBytes
}

// AddDetailedStatistics sums usage into detailed statistics, including region
// size extremes and the unused tail of the active block.
func (s *Suballocator) AddDetailedStatistics(stats *descutils.DetailedStatistics) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats.BlockCount += s.blocksCreated
	stats.BlockBytes += s.blockBytes
	stats.RegionCount += s.regionsServed
	stats.RegionBytes += s.regionBytes

	if s.regionsServed > 0 {
		if s.regionSizeMin < stats.RegionSizeMin {
			stats.RegionSizeMin = s.regionSizeMin
		}
		if s.regionSizeMax > stats.RegionSizeMax {
			stats.RegionSizeMax = s.regionSizeMax
		}
	}
	if s.current != nil && s.nextOffset < s.current.size {
		stats.AddUnusedRange(s.current.size - s.nextOffset)
	}
}

// Validate performs internal consistency checks. It should not be possible
// for this method to return an error when the suballocator is functioning
// correctly.
func (s *Suballocator) Validate() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.current == nil {
		if s.nextOffset != 0 {
			return errors.Newf("no current backing block, but the bump offset is %d", s.nextOffset)
		}
		return nil
	}

	if s.nextOffset > s.current.size {
		return errors.Newf("bump offset %d exceeds the backing block size %d", s.nextOffset, s.current.size)
	}
	refs := s.current.refs.Load()
	if refs < 1 {
		return errors.Newf("the current backing block has %d references, but the suballocator should hold one", refs)
	}

	return nil
}

var _ descutils.Validatable = (*Suballocator)(nil)
