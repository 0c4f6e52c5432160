package suballoc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"

	"github.com/KiritakeKumi/descant/descutils"
)

type fakeSource struct {
	nextHandle uint64
	created    []int
	destroyed  []BlockHandle
	lastFlags  AllocFlags
}

func (s *fakeSource) CreateBlock(size int, flags AllocFlags) (BlockInfo, common.VkResult, error) {
	s.nextHandle++
	s.created = append(s.created, size)
	s.lastFlags = flags
	return BlockInfo{
		Handle:        BlockHandle(s.nextHandle),
		DeviceAddress: s.nextHandle << 32,
		Mapping:       make([]byte, size),
	}, core1_0.VKSuccess, nil
}

func (s *fakeSource) DestroyBlock(handle BlockHandle) {
	s.destroyed = append(s.destroyed, handle)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout))
}

func testSuballocator(t *testing.T, options CreateOptions) (*Suballocator, *fakeSource) {
	t.Helper()
	source := &fakeSource{}
	s, err := New(testLogger(), source, options)
	require.NoError(t, err)
	return s, source
}

func TestAllocAlignsAndDoesNotOverlap(t *testing.T) {
	s, source := testSuballocator(t, CreateOptions{DefaultBlockSize: 1024})

	a, _, err := s.Alloc(100, 64)
	require.NoError(t, err)
	b, _, err := s.Alloc(100, 64)
	require.NoError(t, err)

	require.Len(t, source.created, 1)
	require.Same(t, a.Block(), b.Block())
	require.Equal(t, 0, a.Offset())
	require.Equal(t, 0, b.Offset()%64)
	require.GreaterOrEqual(t, b.Offset(), a.Offset()+a.Size())
	require.LessOrEqual(t, b.Offset()+b.Size(), b.Block().Size())

	require.Equal(t, a.Block().deviceAddress, a.DeviceAddress())
	require.Equal(t, a.DeviceAddress()+uint64(b.Offset()), b.DeviceAddress())

	require.NoError(t, a.Free())
	require.NoError(t, b.Free())
	s.Destroy()
	require.Len(t, source.destroyed, 1)
}

func TestAllocRollsOverToFreshBlock(t *testing.T) {
	s, source := testSuballocator(t, CreateOptions{DefaultBlockSize: 256})

	a, _, err := s.Alloc(200, 1)
	require.NoError(t, err)
	b, _, err := s.Alloc(100, 1)
	require.NoError(t, err)

	require.Len(t, source.created, 2)
	require.NotSame(t, a.Block(), b.Block())
	require.Equal(t, 2, s.LiveBlockCount())

	// The retired block survives until its last region is freed.
	require.NoError(t, b.Free())
	require.Empty(t, source.destroyed)
	require.NoError(t, a.Free())
	require.Len(t, source.destroyed, 1)
	require.Equal(t, a.Block().Handle(), source.destroyed[0])

	s.Destroy()
	require.Len(t, source.destroyed, 2)
	require.Equal(t, 0, s.LiveBlockCount())
}

func TestOversizedRequestGetsDedicatedBlock(t *testing.T) {
	s, source := testSuballocator(t, CreateOptions{DefaultBlockSize: 256})

	r, _, err := s.Alloc(4096, 1)
	require.NoError(t, err)
	require.Equal(t, []int{4096}, source.created)
	require.Equal(t, 4096, r.Block().Size())

	require.NoError(t, r.Free())
	s.Destroy()
}

func TestAllocRejectsBadArguments(t *testing.T) {
	s, _ := testSuballocator(t, CreateOptions{})

	_, _, err := s.Alloc(0, 1)
	require.Error(t, err)
	_, _, err = s.Alloc(-5, 1)
	require.Error(t, err)

	_, _, err = s.Alloc(64, 3)
	require.Error(t, err)
	require.ErrorIs(t, err, descutils.PowerOfTwoError)

	s.Destroy()
}

func TestRegionMapViewsAreDisjoint(t *testing.T) {
	s, _ := testSuballocator(t, CreateOptions{DefaultBlockSize: 1024})

	a, _, err := s.Alloc(64, 1)
	require.NoError(t, err)
	b, _, err := s.Alloc(64, 1)
	require.NoError(t, err)

	require.Len(t, a.Map(), 64)
	for i := range a.Map() {
		a.Map()[i] = 0xaa
	}
	for _, v := range b.Map() {
		require.Equal(t, byte(0), v)
	}

	require.NoError(t, a.Free())
	require.NoError(t, b.Free())
	s.Destroy()
}

func TestRegionDoubleFree(t *testing.T) {
	s, _ := testSuballocator(t, CreateOptions{})

	r, _, err := s.Alloc(64, 1)
	require.NoError(t, err)
	require.NoError(t, r.Free())
	require.Error(t, r.Free())

	s.Destroy()
}

func TestFlagsForwardedToSource(t *testing.T) {
	s, source := testSuballocator(t, CreateOptions{Flags: 0xf00})

	r, _, err := s.Alloc(64, 1)
	require.NoError(t, err)
	require.Equal(t, AllocFlags(0xf00), source.lastFlags)

	require.NoError(t, r.Free())
	s.Destroy()
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(testLogger(), nil, CreateOptions{})
	require.Error(t, err)
}

func TestStatisticsAndValidate(t *testing.T) {
	s, _ := testSuballocator(t, CreateOptions{DefaultBlockSize: 512})

	a, _, err := s.Alloc(100, 1)
	require.NoError(t, err)
	b, _, err := s.Alloc(100, 1)
	require.NoError(t, err)

	var stats descutils.Statistics
	s.AddStatistics(&stats)
	require.Equal(t, 1, stats.BlockCount)
	require.Equal(t, 512, stats.BlockBytes)
	require.Equal(t, 2, stats.RegionCount)

	var detailed descutils.DetailedStatistics
	detailed.Clear()
	s.AddDetailedStatistics(&detailed)
	require.Equal(t, 100, detailed.RegionSizeMin)
	require.Equal(t, 100, detailed.RegionSizeMax)
	require.Equal(t, 200, detailed.RegionBytes)
	require.Equal(t, 1, detailed.UnusedRangeCount)
	require.Equal(t, 312, detailed.UnusedRangeSizeMax)

	require.NoError(t, s.Validate())

	require.NoError(t, a.Free())
	require.NoError(t, b.Free())
	s.Destroy()
	require.NoError(t, s.Validate())
}
