package descriptor

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
)

var (
	// ErrOutOfHostMemory indicates a hard host allocation failure. The current
	// batch must be abandoned, never submitted.
	ErrOutOfHostMemory = errors.New("out of host memory")
	// ErrOutOfDeviceMemory indicates a hard device allocation failure. The
	// current batch must be abandoned, never submitted.
	ErrOutOfDeviceMemory = errors.New("out of device memory")
	// ErrDeviceLost is fatal and surfaced to the top-level caller with no retry.
	ErrDeviceLost = errors.New("device lost")
	// ErrLayoutMismatch indicates an attempt to reuse a descriptor set whose
	// pool layout does not match the requested bindings. This is an internal
	// invariant violation, not a runtime-recoverable condition.
	ErrLayoutMismatch = errors.New("descriptor set layout mismatch")

	// errPoolCapacity is internal: a pool group has hit its hard set cap and
	// the caller must reclaim in-flight sets before retrying.
	errPoolCapacity = errors.New("descriptor pool group is at capacity")
)

// wrapResult attaches the taxonomy sentinel matching a failed native result
// to the native error. Pool exhaustion results are not mapped here; they are
// recovered locally by growing the pool group.
func wrapResult(res common.VkResult, err error) error {
	switch res {
	case core1_0.VKErrorOutOfHostMemory:
		return errors.Mark(err, ErrOutOfHostMemory)
	case core1_0.VKErrorOutOfDeviceMemory:
		return errors.Mark(err, ErrOutOfDeviceMemory)
	case core1_0.VKErrorDeviceLost:
		return errors.Mark(err, ErrDeviceLost)
	}

	return err
}

// isPoolExhausted reports whether a failed set allocation means the pool ran
// out of space, which is recovered by creating another pool for the same key.
func isPoolExhausted(res common.VkResult) bool {
	return res == core1_1.VkErrorOutOfPoolMemory || res == core1_0.VKErrorFragmentedPool
}
