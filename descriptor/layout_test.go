package descriptor

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout))
}

func TestLayoutCacheDeduplicates(t *testing.T) {
	backend := newFakeBackend()
	cache := newLayoutCache(testLogger(), backend)

	bindings := []LayoutBinding{
		{Binding: bindingNumber(StageVertex, 0), Type: KindUniformBuffer.NativeType(), Count: 1, Stages: StageVertex.Native()},
	}

	first, _, err := cache.GetOrCreate(bindings)
	require.NoError(t, err)
	second, _, err := cache.GetOrCreate(bindings)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, backend.layoutCreates)
	require.Equal(t, 1, cache.Count())

	other := []LayoutBinding{
		{Binding: bindingNumber(StageFragment, 0), Type: KindSamplerView.NativeType(), Count: 1, Stages: StageFragment.Native()},
	}
	third, _, err := cache.GetOrCreate(other)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, backend.layoutCreates)
	require.Equal(t, 2, cache.Count())
}

func TestLayoutCacheCopiesBindings(t *testing.T) {
	backend := newFakeBackend()
	cache := newLayoutCache(testLogger(), backend)

	bindings := []LayoutBinding{
		{Binding: 0, Type: KindUniformBuffer.NativeType(), Count: 1, Stages: StageVertex.Native()},
	}
	layout, _, err := cache.GetOrCreate(bindings)
	require.NoError(t, err)

	// Mutating the caller's slice must not corrupt the cached layout.
	bindings[0].Binding = 99
	require.Equal(t, 0, layout.Bindings()[0].Binding)
}

func TestLayoutCacheDestroy(t *testing.T) {
	backend := newFakeBackend()
	cache := newLayoutCache(testLogger(), backend)

	for slot := 0; slot < 3; slot++ {
		_, _, err := cache.GetOrCreate([]LayoutBinding{
			{Binding: bindingNumber(StageVertex, slot), Type: KindUniformBuffer.NativeType(), Count: 1, Stages: StageVertex.Native()},
		})
		require.NoError(t, err)
	}

	cache.Destroy()
	require.Equal(t, 3, backend.layoutDestroys)
	require.Equal(t, 0, cache.Count())
}

func TestLayoutPoolSizesTotalPerType(t *testing.T) {
	layout := &Layout{bindings: []LayoutBinding{
		{Binding: 0, Type: KindUniformBuffer.NativeType(), Count: 1},
		{Binding: 1, Type: KindUniformBuffer.NativeType(), Count: 2},
		{Binding: 2, Type: KindSamplerView.NativeType(), Count: 1},
	}}

	sizes := layout.poolSizes(10)
	require.Len(t, sizes, 2)
	require.Equal(t, KindUniformBuffer.NativeType(), sizes[0].Type)
	require.Equal(t, 30, sizes[0].DescriptorCount)
	require.Equal(t, KindSamplerView.NativeType(), sizes[1].Type)
	require.Equal(t, 10, sizes[1].DescriptorCount)
}
