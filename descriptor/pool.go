package descriptor

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"

	"github.com/KiritakeKumi/descant/descutils"
)

// descBucketFactor controls amortized set allocation: sets are carved from
// native pools in buckets whose size grows by this factor as the group fills.
const descBucketFactor = 10

// SetEntry is one cached native descriptor set plus the bookkeeping needed to
// reuse it safely: the binding state stamped into it at write time, the batch
// currently holding it, and its invalidation flags.
type SetEntry struct {
	group  *poolGroup
	pool   *Pool
	handle SetHandle

	// key and hash are the binding state written into the set. Valid only
	// after the first commit.
	key  stateKey
	hash uint64

	// batchUses holds the id of the batch this entry is checked out to, or 0.
	// At most one batch holds an entry at a time.
	batchUses atomic.Uint64

	// written is set on first commit; entries from the unused list have
	// never been populated.
	written bool
	// invalid marks stamped contents as stale because a referenced resource
	// changed identity. Invalid entries are never handed out as cache hits.
	invalid bool
	// punted defers recycling of an invalidated entry until the batch holding
	// it completes.
	punted bool
	// recycled guards the free list against double insertion.
	recycled bool

	// resources referenced by the stamped contents, for back-reference
	// cleanup when the entry is invalidated or recycled.
	resources []*Resource
}

// Handle returns the native descriptor set handle.
func (e *SetEntry) Handle() SetHandle { return e.handle }

func (e *SetEntry) inFlight() bool { return e.batchUses.Load() != 0 }

// Pool is one native descriptor pool instance inside a group. Set bookkeeping
// lives on the group; the pool only tracks how many sets were carved from it.
type Pool struct {
	handle    PoolHandle
	allocated int
	maxSets   int
}

func (p *Pool) remaining() int { return p.maxSets - p.allocated }

// poolGroup owns every pool and set created for one layout. Sets move between
// three stores: live (populated, keyed by stamped hash), recycled
// (invalidated free list), and unused (allocated but never written).
type poolGroup struct {
	layout *Layout
	pools  []*Pool

	live     *swiss.Map[uint64, []*SetEntry]
	recycled []*SetEntry
	unused   []*SetEntry

	// allocated counts every set ever carved across this group's pools, for
	// the hard cap and bucket sizing.
	allocated int

	// lastCheckout is the id of the newest batch that took a set from this
	// group, for idle reclaim.
	lastCheckout uint64
}

func (g *poolGroup) newestPool() *Pool {
	if len(g.pools) == 0 {
		return nil
	}
	return g.pools[len(g.pools)-1]
}

func (g *poolGroup) anyInFlight() bool {
	busy := false
	g.live.Iter(func(_ uint64, bucket []*SetEntry) bool {
		for _, e := range bucket {
			if e.inFlight() {
				busy = true
				return true
			}
		}
		return false
	})
	return busy
}

// setBucketSize returns the next allocation bucket for a group that has
// already carved allocated sets: starts at the bucket factor and grows by the
// factor each time usage outgrows it.
func setBucketSize(allocated int) int {
	size := descBucketFactor
	for f := descBucketFactor * descBucketFactor; f <= allocated; f *= descBucketFactor {
		size = f
	}
	return size
}

// PoolCache owns all descriptor pools and cached sets, grouped per layout.
// Checkout serves cache hits from the live store when the stamped state
// matches and the entry is not held by another batch, and otherwise hands out
// an entry that the caller must populate and commit.
//
// The cache is confined to the recording goroutine except for the atomic
// batch-usage slots on entries, which completion clears from the polling
// path.
type PoolCache struct {
	logger  *slog.Logger
	backend Backend

	groups map[*Layout]*poolGroup

	// poolMaxSets sizes each native pool instance; a full instance gets a
	// sibling. maxSetsPerGroup is the separate, larger backpressure bound
	// across all of a group's instances.
	poolMaxSets     int
	maxSetsPerGroup int
	sizeMultipliers map[core1_0.DescriptorType]float64

	stats *descutils.CacheStatistics
}

func newPoolCache(logger *slog.Logger, backend Backend, poolMaxSets, maxSetsPerGroup int, sizeMultipliers map[core1_0.DescriptorType]float64, stats *descutils.CacheStatistics) *PoolCache {
	return &PoolCache{
		logger:          logger,
		backend:         backend,
		groups:          make(map[*Layout]*poolGroup),
		poolMaxSets:     poolMaxSets,
		maxSetsPerGroup: maxSetsPerGroup,
		sizeMultipliers: sizeMultipliers,
		stats:           stats,
	}
}

func (c *PoolCache) groupFor(layout *Layout) *poolGroup {
	if g, ok := c.groups[layout]; ok {
		return g
	}
	g := &poolGroup{
		layout: layout,
		live:   swiss.NewMap[uint64, []*SetEntry](16),
	}
	c.groups[layout] = g
	c.stats.PoolCount++
	return g
}

// Checkout returns a set entry for the given binding state. On a cache hit
// the entry's stamped contents already match and no write is needed; on a
// miss the caller must populate the entry and Commit it. Pool exhaustion is
// recovered internally by appending a pool instance; hitting the group's hard
// set cap returns errPoolCapacity so the caller can reclaim in-flight sets
// and retry.
func (c *PoolCache) Checkout(layout *Layout, key stateKey, hash uint64, batchID uint64) (entry *SetEntry, needsWrite bool, res common.VkResult, err error) {
	g := c.groupFor(layout)
	g.lastCheckout = batchID

	bucket, _ := g.live.Get(hash)
	for _, e := range bucket {
		if e.invalid || e.key != key {
			continue
		}
		uses := e.batchUses.Load()
		if uses != 0 && uses != batchID {
			continue
		}
		e.batchUses.Store(batchID)
		c.stats.CacheHits++
		return e, false, core1_0.VKSuccess, nil
	}
	c.stats.CacheMisses++

	if n := len(g.recycled); n > 0 {
		e := g.recycled[n-1]
		g.recycled = g.recycled[:n-1]
		e.recycled = false
		e.invalid = false
		e.punted = false
		e.batchUses.Store(batchID)
		return e, true, core1_0.VKSuccess, nil
	}

	if len(g.unused) == 0 {
		if res, err := c.allocateBucket(g); err != nil {
			return nil, false, res, err
		}
	}

	n := len(g.unused)
	e := g.unused[n-1]
	g.unused = g.unused[:n-1]
	e.batchUses.Store(batchID)
	return e, true, core1_0.VKSuccess, nil
}

// allocateBucket carves the next bucket of sets from the group's newest pool,
// creating the pool first if needed. A native pool-exhaustion result retires
// the current pool and retries once on a fresh one.
func (c *PoolCache) allocateBucket(g *poolGroup) (common.VkResult, error) {
	if g.allocated >= c.maxSetsPerGroup {
		return core1_0.VKSuccess, errors.Mark(
			errors.Newf("layout group holds %d sets", g.allocated), errPoolCapacity)
	}

	count := setBucketSize(g.allocated)
	if remaining := c.maxSetsPerGroup - g.allocated; count > remaining {
		count = remaining
	}

	pool := g.newestPool()
	for attempt := 0; ; attempt++ {
		if pool == nil || pool.remaining() <= 0 {
			var res common.VkResult
			var err error
			pool, res, err = c.createPool(g)
			if err != nil {
				return res, err
			}
		}
		if count > pool.remaining() {
			count = pool.remaining()
		}

		handles, res, err := c.backend.AllocateDescriptorSets(pool.handle, g.layout.handle, count)
		if err != nil {
			if isPoolExhausted(res) && attempt == 0 {
				// Fragmented or over-subscribed native pool: retire it and
				// carve from a fresh one.
				pool.allocated = pool.maxSets
				pool = nil
				continue
			}
			return res, wrapResult(res, err)
		}

		pool.allocated += count
		g.allocated += count
		c.stats.SetsAllocated += count
		for _, h := range handles {
			g.unused = append(g.unused, &SetEntry{group: g, pool: pool, handle: h})
		}
		return res, nil
	}
}

func (c *PoolCache) createPool(g *poolGroup) (*Pool, common.VkResult, error) {
	sizes := g.layout.poolSizes(c.poolMaxSets)
	for i := range sizes {
		if mult, ok := c.sizeMultipliers[sizes[i].Type]; ok {
			sizes[i].DescriptorCount = int(float64(sizes[i].DescriptorCount) * mult)
			if sizes[i].DescriptorCount < 1 {
				sizes[i].DescriptorCount = 1
			}
		}
	}
	handle, res, err := c.backend.CreateDescriptorPool(sizes, c.poolMaxSets)
	if err != nil {
		return nil, res, wrapResult(res, err)
	}

	pool := &Pool{handle: handle, maxSets: c.poolMaxSets}
	g.pools = append(g.pools, pool)
	c.logger.Debug("created descriptor pool",
		slog.Int("instance", len(g.pools)),
		slog.Int("maxSets", pool.maxSets),
	)
	return pool, res, nil
}

// Commit stamps freshly written contents onto an entry and inserts it into
// the live store under its new hash.
func (c *PoolCache) Commit(entry *SetEntry, key stateKey, hash uint64, resources []*Resource) {
	g := entry.group
	if entry.written {
		c.removeFromLive(g, entry)
	}
	entry.key = key
	entry.hash = hash
	entry.written = true
	entry.resources = resources

	bucket, _ := g.live.Get(hash)
	g.live.Put(hash, append(bucket, entry))
	c.stats.SetsLive++
	c.stats.SetWrites++

	for _, r := range resources {
		r.setRefs[entry] = struct{}{}
	}
	descutils.DebugValidate(c)
}

func (c *PoolCache) removeFromLive(g *poolGroup, entry *SetEntry) {
	bucket, ok := g.live.Get(entry.hash)
	if !ok {
		return
	}
	for i, e := range bucket {
		if e == entry {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		g.live.Delete(entry.hash)
	} else {
		g.live.Put(entry.hash, bucket)
	}
	c.stats.SetsLive--
}

// Invalidate marks an entry's stamped contents stale. Idle entries are
// recycled immediately; in-flight entries are punted and recycled when their
// batch completes.
func (c *PoolCache) Invalidate(entry *SetEntry) {
	if entry.invalid {
		return
	}
	entry.invalid = true
	if entry.inFlight() {
		entry.punted = true
		return
	}
	c.recycleEntry(entry)
}

// Release is the completion path for a checked-out entry: the batch's hold is
// dropped, and entries invalidated while in flight move to the free list.
func (c *PoolCache) Release(entry *SetEntry, batchID uint64) {
	entry.batchUses.CompareAndSwap(batchID, 0)
	if entry.punted {
		entry.punted = false
		c.recycleEntry(entry)
	}
}

// abandon returns a checked-out entry that was never committed: the batch's
// hold is dropped and the entry goes back to the unused list for a later
// checkout to populate.
func (c *PoolCache) abandon(entry *SetEntry, batchID uint64) {
	entry.batchUses.CompareAndSwap(batchID, 0)
	if !entry.written && !entry.recycled {
		entry.group.unused = append(entry.group.unused, entry)
	}
}

// recycleEntry moves an invalidated entry to the free list exactly once,
// dropping its resource back-references.
func (c *PoolCache) recycleEntry(entry *SetEntry) {
	g := entry.group
	if entry.recycled {
		return
	}
	if entry.written {
		c.removeFromLive(g, entry)
		entry.written = false
	}
	for _, r := range entry.resources {
		delete(r.setRefs, entry)
	}
	entry.resources = nil
	entry.recycled = true
	g.recycled = append(g.recycled, entry)
	c.stats.SetsRecycled++
	descutils.DebugValidate(c)
}

// Scavenge recycles up to want idle live entries from a group, relieving
// capacity pressure once the batches holding them have completed. Returns how
// many entries were reclaimed.
func (c *PoolCache) Scavenge(g *poolGroup, want int) int {
	if want <= 0 {
		return 0
	}
	var victims []*SetEntry
	g.live.Iter(func(_ uint64, bucket []*SetEntry) bool {
		for _, e := range bucket {
			if !e.inFlight() {
				victims = append(victims, e)
				if len(victims) >= want {
					return true
				}
			}
		}
		return false
	})
	for _, e := range victims {
		c.recycleEntry(e)
	}
	return len(victims)
}

// ReclaimIdle destroys pool groups whose sets have all been idle for at least
// idleFrames completed batches. A zero idleFrames disables reclaim.
func (c *PoolCache) ReclaimIdle(idleFrames int, completedID uint64) {
	if idleFrames <= 0 {
		return
	}
	for layout, g := range c.groups {
		if g.lastCheckout == 0 || completedID < g.lastCheckout+uint64(idleFrames) {
			continue
		}
		if g.anyInFlight() {
			continue
		}
		c.destroyGroup(g)
		delete(c.groups, layout)
		c.logger.Debug("reclaimed idle descriptor pool group",
			slog.Uint64("lastCheckout", g.lastCheckout),
		)
	}
}

func (c *PoolCache) destroyGroup(g *poolGroup) {
	g.live.Iter(func(_ uint64, bucket []*SetEntry) bool {
		for _, e := range bucket {
			for _, r := range e.resources {
				delete(r.setRefs, e)
			}
		}
		return false
	})
	for _, p := range g.pools {
		c.backend.DestroyDescriptorPool(p.handle)
	}
	c.stats.PoolCount--
}

// Destroy releases every pool in every group. Entries must no longer be in
// flight.
func (c *PoolCache) Destroy() {
	for layout, g := range c.groups {
		c.destroyGroup(g)
		delete(c.groups, layout)
	}
}

// Validate performs internal consistency checks on every group's set stores.
func (c *PoolCache) Validate() error {
	for _, g := range c.groups {
		stored := len(g.recycled) + len(g.unused)
		var err error
		g.live.Iter(func(hash uint64, bucket []*SetEntry) bool {
			for _, e := range bucket {
				stored++
				if e.recycled {
					err = errors.Newf("a recycled entry is still in the live store under hash %x", hash)
					return true
				}
				if !e.written {
					err = errors.Newf("an unwritten entry is in the live store under hash %x", hash)
					return true
				}
				if e.hash != hash {
					err = errors.Newf("an entry stamped %x is stored under hash %x", e.hash, hash)
					return true
				}
			}
			return false
		})
		if err != nil {
			return err
		}
		for _, e := range g.recycled {
			if !e.recycled {
				return errors.New("the free list holds an entry not flagged recycled")
			}
		}
		if stored > g.allocated {
			return errors.Newf("group stores %d entries but only %d were allocated", stored, g.allocated)
		}
	}
	return nil
}

var _ descutils.Validatable = (*PoolCache)(nil)
