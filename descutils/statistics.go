package descutils

import "math"

// Statistics summarizes suballocator usage: how many backing blocks are live,
// how many carved regions exist within them, and the byte totals of each.
type Statistics struct {
	BlockCount  int
	RegionCount int
	BlockBytes  int
	RegionBytes int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.RegionCount = 0
	s.BlockBytes = 0
	s.RegionBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.RegionCount += other.RegionCount
	s.BlockBytes += other.BlockBytes
	s.RegionBytes += other.RegionBytes
}

// DetailedStatistics extends Statistics with per-region extremes and a count
// of unused tail space, for diagnostic dumps.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	RegionSizeMin      int
	RegionSizeMax      int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.RegionSizeMin = math.MaxInt
	s.RegionSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddRegion(size int) {
	s.RegionCount++
	s.RegionBytes += size

	if size < s.RegionSizeMin {
		s.RegionSizeMin = size
	}

	if size > s.RegionSizeMax {
		s.RegionSizeMax = size
	}
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

// CacheStatistics summarizes descriptor cache behavior across layout, pool,
// and set caches.
type CacheStatistics struct {
	LayoutCount   int
	PoolCount     int
	SetsAllocated int
	SetsLive      int
	SetsRecycled  int
	SetWrites     int
	CacheHits     int
	CacheMisses   int
}

func (s *CacheStatistics) Clear() {
	*s = CacheStatistics{}
}

func (s *CacheStatistics) AddCacheStatistics(other *CacheStatistics) {
	s.LayoutCount += other.LayoutCount
	s.PoolCount += other.PoolCount
	s.SetsAllocated += other.SetsAllocated
	s.SetsLive += other.SetsLive
	s.SetsRecycled += other.SetsRecycled
	s.SetWrites += other.SetWrites
	s.CacheHits += other.CacheHits
	s.CacheMisses += other.CacheMisses
}
