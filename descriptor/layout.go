package descriptor

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

// Layout is a cached, immutable descriptor set layout: the native handle plus
// the binding sequence it was created from. Layouts live until the cache is
// destroyed; they are shared by every pool and set created against them.
type Layout struct {
	handle   LayoutHandle
	hash     uint64
	bindings []LayoutBinding
}

// Handle returns the native layout handle.
func (l *Layout) Handle() LayoutHandle { return l.handle }

// Bindings returns the binding sequence this layout was created from. The
// slice is shared and must not be mutated.
func (l *Layout) Bindings() []LayoutBinding { return l.bindings }

// poolSizes totals the descriptor counts per native type for a pool holding
// maxSets sets of this layout.
func (l *Layout) poolSizes(maxSets int) []core1_0.DescriptorPoolSize {
	totals := make(map[core1_0.DescriptorType]int)
	order := make([]core1_0.DescriptorType, 0, len(l.bindings))
	for _, b := range l.bindings {
		if _, seen := totals[b.Type]; !seen {
			order = append(order, b.Type)
		}
		totals[b.Type] += b.Count * maxSets
	}

	sizes := make([]core1_0.DescriptorPoolSize, 0, len(order))
	for _, t := range order {
		sizes = append(sizes, core1_0.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: totals[t],
		})
	}
	return sizes
}

func hashBindings(bindings []LayoutBinding) uint64 {
	h := xxhash.New()
	for _, b := range bindings {
		hashWrite(h, uint64(b.Binding))
		hashWrite(h, uint64(b.Type))
		hashWrite(h, uint64(b.Count))
		hashWrite(h, uint64(b.Stages))
	}
	return h.Sum64()
}

func bindingsEqual(a, b []LayoutBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LayoutCache deduplicates descriptor set layouts by binding sequence. The
// table is keyed by a structural hash; entries sharing a hash are kept in a
// bucket and disambiguated by element-wise comparison, so a hash collision
// can never hand back the wrong layout.
//
// The cache is confined to the recording goroutine and does no locking of its
// own.
type LayoutCache struct {
	logger  *slog.Logger
	backend Backend

	table *swiss.Map[uint64, []*Layout]
	count int
	hits  int
}

func newLayoutCache(logger *slog.Logger, backend Backend) *LayoutCache {
	return &LayoutCache{
		logger:  logger,
		backend: backend,
		table:   swiss.NewMap[uint64, []*Layout](16),
	}
}

// GetOrCreate returns the cached layout for a binding sequence, creating and
// caching a native layout on first sight.
func (c *LayoutCache) GetOrCreate(bindings []LayoutBinding) (*Layout, common.VkResult, error) {
	hash := hashBindings(bindings)

	bucket, _ := c.table.Get(hash)
	for _, l := range bucket {
		if bindingsEqual(l.bindings, bindings) {
			c.hits++
			return l, core1_0.VKSuccess, nil
		}
	}

	owned := make([]LayoutBinding, len(bindings))
	copy(owned, bindings)

	handle, res, err := c.backend.CreateDescriptorSetLayout(owned)
	if err != nil {
		return nil, res, wrapResult(res, err)
	}

	layout := &Layout{
		handle:   handle,
		hash:     hash,
		bindings: owned,
	}
	c.table.Put(hash, append(bucket, layout))
	c.count++
	c.logger.Debug("created descriptor set layout",
		slog.Uint64("hash", hash),
		slog.Int("bindings", len(owned)),
	)
	return layout, res, nil
}

// Count returns the number of distinct layouts created so far.
func (c *LayoutCache) Count() int { return c.count }

// Destroy releases every cached native layout. The cache must not be used
// afterwards.
func (c *LayoutCache) Destroy() {
	c.table.Iter(func(_ uint64, bucket []*Layout) bool {
		for _, l := range bucket {
			c.backend.DestroyDescriptorSetLayout(l.handle)
		}
		return false
	})
	c.table = swiss.NewMap[uint64, []*Layout](0)
	c.count = 0
}
