package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateHashStableAcrossRecompute(t *testing.T) {
	res := NewResource("ubo", 0x1000, 256)

	var tracker StateTracker
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)

	first, count := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.Equal(t, 1, count)

	tracker.Invalidate(StageVertex, KindUniformBuffer)
	second, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.Equal(t, first, second)

	// Rebinding the identical range must not change the hash either.
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)
	third, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.Equal(t, first, third)
}

func TestStateHashSensitivity(t *testing.T) {
	res := NewResource("ubo", 0x1000, 1024)
	other := NewResource("ubo2", 0x2000, 1024)

	var tracker StateTracker
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)
	base, _ := tracker.StateHash(StageVertex, KindUniformBuffer)

	// Same resource, different offset.
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 256, 256)
	offsetHash, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.NotEqual(t, base, offsetHash)

	// Same offset, different length.
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 512)
	rangeHash, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.NotEqual(t, base, rangeHash)

	// Different resource at the original range.
	tracker.Bind(StageVertex, KindUniformBuffer, 0, other, 0, 256)
	resHash, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.NotEqual(t, base, resHash)

	// Original binding in a different slot.
	tracker.Bind(StageVertex, KindUniformBuffer, 0, nil, 0, 0)
	tracker.Bind(StageVertex, KindUniformBuffer, 1, res, 0, 256)
	slotHash, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.NotEqual(t, base, slotHash)
}

func TestStateHashGenerationSensitivity(t *testing.T) {
	res := NewResource("ubo", 0x1000, 256)

	var tracker StateTracker
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)
	before, _ := tracker.StateHash(StageVertex, KindUniformBuffer)

	res.generation++
	tracker.Invalidate(StageVertex, KindUniformBuffer)
	after, _ := tracker.StateHash(StageVertex, KindUniformBuffer)
	require.NotEqual(t, before, after)
}

func TestProgramKeySeparatesBindPoints(t *testing.T) {
	res := NewResource("img", 0x1000, 0)

	var tracker StateTracker
	tracker.Bind(StageFragment, KindSamplerView, 0, res, 0, 0)
	tracker.Bind(StageCompute, KindSamplerView, 0, res, 0, 0)

	gfxKey, _, gfxAny := tracker.ProgramKey(KindSamplerView, false)
	require.True(t, gfxAny)
	require.True(t, gfxKey.exists[StageFragment])
	require.False(t, gfxKey.exists[StageCompute])

	compKey, _, compAny := tracker.ProgramKey(KindSamplerView, true)
	require.True(t, compAny)
	require.True(t, compKey.exists[StageCompute])
	require.False(t, compKey.exists[StageFragment])

	_, _, any := tracker.ProgramKey(KindStorageImage, false)
	require.False(t, any)
}

func TestProgramKeyMergedHashDiffersByStage(t *testing.T) {
	res := NewResource("ubo", 0x1000, 256)

	var vertTracker, fragTracker StateTracker
	vertTracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)
	fragTracker.Bind(StageFragment, KindUniformBuffer, 0, res, 0, 256)

	_, vertHash, _ := vertTracker.ProgramKey(KindUniformBuffer, false)
	_, fragHash, _ := fragTracker.ProgramKey(KindUniformBuffer, false)
	require.NotEqual(t, vertHash, fragHash)
}

func TestLayoutBindingsDeterministicOrder(t *testing.T) {
	res := NewResource("ubo", 0x1000, 256)

	var tracker StateTracker
	tracker.Bind(StageFragment, KindUniformBuffer, 1, res, 0, 256)
	tracker.Bind(StageVertex, KindUniformBuffer, 3, res, 0, 256)
	tracker.Bind(StageVertex, KindUniformBuffer, 0, res, 0, 256)

	bindings := tracker.LayoutBindings(KindUniformBuffer, false)
	require.Len(t, bindings, 3)
	require.Equal(t, bindingNumber(StageVertex, 0), bindings[0].Binding)
	require.Equal(t, bindingNumber(StageVertex, 3), bindings[1].Binding)
	require.Equal(t, bindingNumber(StageFragment, 1), bindings[2].Binding)
	for _, b := range bindings {
		require.Equal(t, KindUniformBuffer.NativeType(), b.Type)
		require.Equal(t, 1, b.Count)
	}
}
