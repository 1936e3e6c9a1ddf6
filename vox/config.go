package vox

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultChunkExp is the default per-axis chunk shape exponent: 16^3
	// voxel chunks of 4096 voxels.
	DefaultChunkExp = 4

	// DefaultMaxResidentChunks bounds resident chunks before eviction kicks in.
	DefaultMaxResidentChunks = 1024

	// DefaultMaxEvictionsPerPass throttles how many chunks a single
	// maintenance pass will compress.
	DefaultMaxEvictionsPerPass = 16

	// DefaultBacktrackLimit bounds how many collapses the generator may undo
	// before reporting a terminal contradiction.
	DefaultBacktrackLimit = 64
)

// ChunkConfig holds the chunk shape and cold-storage codec settings.
type ChunkConfig struct {
	ExpX        uint8  `toml:"shape_exp_x"`
	ExpY        uint8  `toml:"shape_exp_y"`
	ExpZ        uint8  `toml:"shape_exp_z"`
	Compression string `toml:"compression"` // none | snappy | gzip
	Checksum    bool   `toml:"checksum"`
}

// CacheConfig bounds the resident chunk set.
type CacheConfig struct {
	MaxResidentChunks   int `toml:"max_resident_chunks"`
	MaxEvictionsPerPass int `toml:"max_evictions_per_pass"`
	ColdCacheMB         int `toml:"cold_cache_mb"`
}

// GenerateConfig holds the stamp extraction and collapse settings.
type GenerateConfig struct {
	StampX         int32  `toml:"stamp_x"`
	StampY         int32  `toml:"stamp_y"`
	StampZ         int32  `toml:"stamp_z"`
	Boundary       string `toml:"boundary"` // wrap | clamp
	BacktrackLimit int    `toml:"backtrack_limit"`
	Seed           int64  `toml:"seed"`
	DetailLevels   int    `toml:"detail_levels"`
}

// Config is the complete TOML configuration consumed by the core.
type Config struct {
	Chunks   ChunkConfig    `toml:"chunks"`
	Cache    CacheConfig    `toml:"cache"`
	Generate GenerateConfig `toml:"generate"`
	Logging  LogConfig      `toml:"logging"`
}

// DefaultConfig returns a configuration usable without any TOML file.
func DefaultConfig() Config {
	return Config{
		Chunks: ChunkConfig{
			ExpX:        DefaultChunkExp,
			ExpY:        DefaultChunkExp,
			ExpZ:        DefaultChunkExp,
			Compression: "snappy",
			Checksum:    true,
		},
		Cache: CacheConfig{
			MaxResidentChunks:   DefaultMaxResidentChunks,
			MaxEvictionsPerPass: DefaultMaxEvictionsPerPass,
			ColdCacheMB:         32,
		},
		Generate: GenerateConfig{
			StampX:         2,
			StampY:         2,
			StampZ:         2,
			Boundary:       "wrap",
			BacktrackLimit: DefaultBacktrackLimit,
			DetailLevels:   1,
		},
	}
}

// LoadConfig loads configuration from a TOML file, filling unset values
// with defaults.  Relative logfile paths are converted to absolute paths
// rooted at the TOML file's own directory.
func LoadConfig(filename string) (Config, error) {
	c := DefaultConfig()
	if filename == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return c, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if c.Logging.Logfile != "" && !filepath.IsAbs(c.Logging.Logfile) {
		c.Logging.Logfile = filepath.Join(filepath.Dir(filename), c.Logging.Logfile)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks settings that would otherwise fail deep inside the core.
func (c *Config) Validate() error {
	if _, err := CompressionByName(c.Chunks.Compression); err != nil {
		return err
	}
	if _, err := NewPow2Shape(c.Chunks.ExpX, c.Chunks.ExpY, c.Chunks.ExpZ); err != nil {
		return err
	}
	if c.Cache.MaxResidentChunks < 1 {
		return fmt.Errorf("max_resident_chunks must be at least 1, got %d", c.Cache.MaxResidentChunks)
	}
	if c.Cache.MaxEvictionsPerPass < 1 {
		return fmt.Errorf("max_evictions_per_pass must be at least 1, got %d", c.Cache.MaxEvictionsPerPass)
	}
	if c.Generate.StampX < 1 || c.Generate.StampY < 1 || c.Generate.StampZ < 1 {
		return fmt.Errorf("stamp extents (%d,%d,%d) must be positive",
			c.Generate.StampX, c.Generate.StampY, c.Generate.StampZ)
	}
	switch c.Generate.Boundary {
	case "wrap", "clamp":
	default:
		return fmt.Errorf("unknown boundary policy %q", c.Generate.Boundary)
	}
	return nil
}

// ChunkShape returns the power-of-two shape configured for chunks.
func (c *Config) ChunkShape() Pow2Shape {
	s, err := NewPow2Shape(c.Chunks.ExpX, c.Chunks.ExpY, c.Chunks.ExpZ)
	if err != nil {
		// Validate() rejects bad exponents before we get here.
		panic(err)
	}
	return s
}

// StampShape returns the strided shape configured for stamp blocks.
func (c *Config) StampShape() StridedShape {
	s, err := NewStridedShape(c.Generate.StampX, c.Generate.StampY, c.Generate.StampZ)
	if err != nil {
		panic(err)
	}
	return s
}

// ChunkCompression returns the codec configured for cold chunks.
func (c *Config) ChunkCompression() Compression {
	compress, err := CompressionByName(c.Chunks.Compression)
	if err != nil {
		panic(err)
	}
	return compress
}

// ChunkChecksum returns the checksum configured for cold chunks.
func (c *Config) ChunkChecksum() Checksum {
	if c.Chunks.Checksum {
		return CRC32
	}
	return NoChecksum
}
