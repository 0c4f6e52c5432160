package descriptor

import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Kind buckets native descriptor types into the four groups that get their
// own descriptor set: uniform buffers, sampled views, storage buffers, and
// storage images.
type Kind int32

const (
	KindUniformBuffer Kind = iota
	KindSamplerView
	KindStorageBuffer
	KindStorageImage

	NumKinds = 4
)

var kindMapping = map[Kind]string{
	KindUniformBuffer: "KindUniformBuffer",
	KindSamplerView:   "KindSamplerView",
	KindStorageBuffer: "KindStorageBuffer",
	KindStorageImage:  "KindStorageImage",
}

func (k Kind) String() string {
	return kindMapping[k]
}

// NativeType returns the native descriptor type used for bindings of this kind.
func (k Kind) NativeType() core1_0.DescriptorType {
	switch k {
	case KindUniformBuffer:
		return core1_0.DescriptorTypeUniformBuffer
	case KindSamplerView:
		return core1_0.DescriptorTypeCombinedImageSampler
	case KindStorageBuffer:
		return core1_0.DescriptorTypeStorageBuffer
	case KindStorageImage:
		return core1_0.DescriptorTypeStorageImage
	}

	panic("unknown descriptor kind")
}

// IsWritten reports whether shaders can write through bindings of this kind.
// Written kinds record write usage on the batch rather than read usage.
func (k Kind) IsWritten() bool {
	return k == KindStorageBuffer || k == KindStorageImage
}

// Stage identifies a shader stage slot in the state tracker.
type Stage int32

const (
	StageVertex Stage = iota
	StageTessellationControl
	StageTessellationEvaluation
	StageGeometry
	StageFragment
	StageCompute

	// NumGraphicsStages is the number of stages that participate in the
	// graphics pipeline; StageCompute is tracked separately.
	NumGraphicsStages = 5
	NumStages         = 6
)

var stageMapping = map[Stage]string{
	StageVertex:                 "StageVertex",
	StageTessellationControl:    "StageTessellationControl",
	StageTessellationEvaluation: "StageTessellationEvaluation",
	StageGeometry:               "StageGeometry",
	StageFragment:               "StageFragment",
	StageCompute:                "StageCompute",
}

func (s Stage) String() string {
	return stageMapping[s]
}

// Native returns the native stage flag bit for this stage.
func (s Stage) Native() core1_0.ShaderStageFlags {
	switch s {
	case StageVertex:
		return core1_0.StageVertex
	case StageTessellationControl:
		return core1_0.StageTessellationControl
	case StageTessellationEvaluation:
		return core1_0.StageTessellationEvaluation
	case StageGeometry:
		return core1_0.StageGeometry
	case StageFragment:
		return core1_0.StageFragment
	case StageCompute:
		return core1_0.StageCompute
	}

	panic("unknown shader stage")
}

// bindingNumber maps a (stage, slot) pair to a stable native binding index so
// that layouts synthesized from the same bound slots are always structurally
// identical.
func bindingNumber(stage Stage, slot int) int {
	return int(stage)<<8 | slot
}
