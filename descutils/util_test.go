package descutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, CheckPow2(uint(1), "align"))
	require.NoError(t, CheckPow2(uint(64), "align"))
	err := CheckPow2(uint(48), "align")
	require.Error(t, err)
	require.ErrorIs(t, err, PowerOfTwoError)
	require.Contains(t, err.Error(), "align is 48")
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, AlignUp(0, 16))
	require.Equal(t, 16, AlignUp(1, 16))
	require.Equal(t, 16, AlignUp(16, 16))
	require.Equal(t, 32, AlignUp(17, 16))
	require.Equal(t, 100, AlignUp(100, 1))
}

func TestAlignDown(t *testing.T) {
	require.Equal(t, 0, AlignDown(15, 16))
	require.Equal(t, 16, AlignDown(16, 16))
	require.Equal(t, 16, AlignDown(31, 16))
}

func TestDetailedStatisticsTracksExtremes(t *testing.T) {
	var stats DetailedStatistics
	stats.Clear()

	stats.AddRegion(100)
	stats.AddRegion(30)
	stats.AddRegion(500)
	require.Equal(t, 3, stats.RegionCount)
	require.Equal(t, 630, stats.RegionBytes)
	require.Equal(t, 30, stats.RegionSizeMin)
	require.Equal(t, 500, stats.RegionSizeMax)

	stats.AddUnusedRange(64)
	stats.AddUnusedRange(8)
	require.Equal(t, 2, stats.UnusedRangeCount)
	require.Equal(t, 8, stats.UnusedRangeSizeMin)
	require.Equal(t, 64, stats.UnusedRangeSizeMax)
}

func TestStatisticsClearAndAdd(t *testing.T) {
	var stats CacheStatistics
	stats.SetsAllocated = 10
	stats.CacheHits = 4

	var other CacheStatistics
	other.SetsAllocated = 5
	other.CacheMisses = 2

	stats.AddCacheStatistics(&other)
	require.Equal(t, 15, stats.SetsAllocated)
	require.Equal(t, 4, stats.CacheHits)
	require.Equal(t, 2, stats.CacheMisses)

	stats.Clear()
	require.Equal(t, CacheStatistics{}, stats)
}
