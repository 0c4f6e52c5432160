package descriptor

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Mode selects the descriptor update strategy. Both modes produce identical
// external behavior; they differ in when set entries are checked out.
type Mode int32

const (
	// ModeLazy checks out a set on the first draw that needs each unique
	// binding state.
	ModeLazy Mode = iota
	// ModeEager checks out sets for the currently bound state when a batch
	// begins, ahead of the first draw.
	ModeEager
)

var modeMapping = map[Mode]string{
	ModeLazy:  "lazy",
	ModeEager: "eager",
}

func (m Mode) String() string {
	return modeMapping[m]
}

// ParseMode converts a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "lazy":
		return ModeLazy, nil
	case "eager":
		return ModeEager, nil
	}
	return ModeLazy, errors.Newf("unknown descriptor mode %q (want \"lazy\" or \"eager\")", s)
}

// Config carries the tunables of a Manager. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// Mode is the update strategy: "lazy" or "eager".
	Mode string `toml:"mode"`
	// DefaultBackingSize is the block size the suballocator requests when a
	// region fits, in bytes.
	DefaultBackingSize int `toml:"default_backing_size"`
	// MaxSetsPerPool is the number of descriptor sets each native pool
	// instance is created for. A full instance transparently gets a sibling.
	MaxSetsPerPool int `toml:"max_sets_per_pool"`
	// MaxSetsPerGroup is the hard cap on descriptor sets across all pool
	// instances of one layout group. Hitting it stalls recording on the
	// oldest in-flight batch.
	MaxSetsPerGroup int `toml:"max_sets_per_group"`
	// IdlePoolFrames destroys a pool group after this many completed batches
	// without a checkout. 0 disables reclaim.
	IdlePoolFrames int `toml:"idle_pool_frames"`
	// PoolSizeMultipliers scales per-kind descriptor counts when sizing
	// pools, keyed by kind name: uniform_buffer, sampler_view,
	// storage_buffer, storage_image.
	PoolSizeMultipliers map[string]float64 `toml:"pool_size_multipliers"`
	// Breadcrumbs logs submit/complete markers when no SubmitHook is given.
	Breadcrumbs bool `toml:"breadcrumbs"`
	// ExternallySynchronized disables internal locking; the caller promises
	// single-threaded access.
	ExternallySynchronized bool `toml:"externally_synchronized"`
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeLazy.String(),
		DefaultBackingSize: 128 * 1024,
		MaxSetsPerPool:     1000,
		MaxSetsPerGroup:    10000,
		IdlePoolFrames:     0,
	}
}

// LoadConfig reads a TOML config, overlaying DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding descriptor config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var kindNames = map[string]Kind{
	"uniform_buffer": KindUniformBuffer,
	"sampler_view":   KindSamplerView,
	"storage_buffer": KindStorageBuffer,
	"storage_image":  KindStorageImage,
}

// Validate rejects configs a Manager cannot run with.
func (c Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}
	if c.DefaultBackingSize <= 0 {
		return errors.Newf("default_backing_size must be positive, got %d", c.DefaultBackingSize)
	}
	if c.MaxSetsPerPool <= 0 {
		return errors.Newf("max_sets_per_pool must be positive, got %d", c.MaxSetsPerPool)
	}
	if c.MaxSetsPerGroup < c.MaxSetsPerPool {
		return errors.Newf("max_sets_per_group %d must be at least max_sets_per_pool %d",
			c.MaxSetsPerGroup, c.MaxSetsPerPool)
	}
	if c.IdlePoolFrames < 0 {
		return errors.Newf("idle_pool_frames must not be negative, got %d", c.IdlePoolFrames)
	}
	for name, mult := range c.PoolSizeMultipliers {
		if _, ok := kindNames[name]; !ok {
			return errors.Newf("unknown kind %q in pool_size_multipliers", name)
		}
		if mult <= 0 {
			return errors.Newf("pool_size_multipliers[%q] must be positive, got %g", name, mult)
		}
	}
	return nil
}

// sizeMultipliers resolves the per-kind multipliers to native descriptor
// types. Config must have been validated.
func (c Config) sizeMultipliers() map[core1_0.DescriptorType]float64 {
	if len(c.PoolSizeMultipliers) == 0 {
		return nil
	}
	out := make(map[core1_0.DescriptorType]float64, len(c.PoolSizeMultipliers))
	for name, mult := range c.PoolSizeMultipliers {
		out[kindNames[name].NativeType()] = mult
	}
	return out
}
