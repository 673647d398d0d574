// Package perfconfig holds the process-wide performance configuration
// and worker pool described in spec section 5/6.6, modeled on the
// original Rust PerformanceConfig (once_cell::Lazy statics) and on the
// teacher's own yaml-driven Configuration type.
package perfconfig

import (
	"fmt"
	"io"
	"runtime"

	"gopkg.in/yaml.v2"
)

// Config mirrors the Rust PerformanceConfig struct.
type Config struct {
	ThreadCount          int  `yaml:"thread_count"`
	MaxMemoryMB          int  `yaml:"max_memory_mb"`
	CompressionLevel     int  `yaml:"compression_level"`
	IOBufferSize         int  `yaml:"io_buffer_size"`
	ChunkSize            int  `yaml:"chunk_size"`
	AdaptiveCompression  bool `yaml:"adaptive_compression"`
	ParallelDedup        bool `yaml:"parallel_dedup"`
	MaxBatchSize         int  `yaml:"max_batch_size"`
}

// AutoDetect derives defaults from the number of available CPUs, the
// same cpu-count bands the Rust original used.
func AutoDetect() *Config {
	cpuCount := runtime.NumCPU()

	threadCount := cpuCount
	if cpuCount > 4 {
		threadCount = cpuCount - 1
	}

	availableMemoryMB := availableMemoryMB(cpuCount)
	maxMemoryMB := clamp(availableMemoryMB/2, 512, 8192)

	var compressionLevel, ioBufferSize, chunkSize int
	switch {
	case cpuCount <= 2:
		compressionLevel, ioBufferSize, chunkSize = 15, 256*1024, 1024*1024
	case cpuCount <= 4:
		compressionLevel, ioBufferSize, chunkSize = 17, 512*1024, 2*1024*1024
	case cpuCount <= 8:
		compressionLevel, ioBufferSize, chunkSize = 19, 1024*1024, 4*1024*1024
	default:
		compressionLevel, ioBufferSize, chunkSize = 19, 2*1024*1024, 8*1024*1024
	}

	maxBatchSize := clamp(cpuCount*10, 20, 200)

	return &Config{
		ThreadCount:         threadCount,
		MaxMemoryMB:         maxMemoryMB,
		CompressionLevel:    compressionLevel,
		IOBufferSize:        ioBufferSize,
		ChunkSize:           chunkSize,
		AdaptiveCompression: true,
		ParallelDedup:       cpuCount > 2,
		MaxBatchSize:        maxBatchSize,
	}
}

func availableMemoryMB(cpuCount int) int {
	switch {
	case cpuCount <= 2:
		return 2048
	case cpuCount <= 4:
		return 4096
	case cpuCount <= 8:
		return 8192
	default:
		return 16384
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Parse decodes a YAML document, overlaying it on top of AutoDetect()'s
// defaults for any field it leaves zero-valued. This is the on-disk
// counterpart of the Rust original's PerformanceConfig::custom.
func Parse(r io.Reader) (*Config, error) {
	base := AutoDetect()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("perfconfig: read: %w", err)
	}
	if len(data) == 0 {
		return base, nil
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("perfconfig: parse yaml: %w", err)
	}

	merged := *base
	overlay(&merged, &override)
	return &merged, nil
}

func overlay(dst, src *Config) {
	if src.ThreadCount != 0 {
		dst.ThreadCount = src.ThreadCount
	}
	if src.MaxMemoryMB != 0 {
		dst.MaxMemoryMB = src.MaxMemoryMB
	}
	if src.CompressionLevel != 0 {
		dst.CompressionLevel = src.CompressionLevel
	}
	if src.IOBufferSize != 0 {
		dst.IOBufferSize = src.IOBufferSize
	}
	if src.ChunkSize != 0 {
		dst.ChunkSize = src.ChunkSize
	}
	if src.MaxBatchSize != 0 {
		dst.MaxBatchSize = src.MaxBatchSize
	}
	// booleans can only be switched on by the override document: an
	// omitted key and an explicit false both decode to false, so a
	// default of true is kept either way.
	dst.AdaptiveCompression = dst.AdaptiveCompression || src.AdaptiveCompression
	dst.ParallelDedup = dst.ParallelDedup || src.ParallelDedup
}

// Fast returns a configuration tuned for speed over compression ratio.
func Fast() *Config {
	c := AutoDetect()
	c.CompressionLevel = 6
	c.AdaptiveCompression = true
	c.ParallelDedup = true
	c.MaxBatchSize *= 2
	return c
}

// Balanced is an alias for AutoDetect, named for parity with the Rust
// PerformanceConfig::balanced constructor.
func Balanced() *Config { return AutoDetect() }

// MaxCompression returns a configuration tuned for maximum compression
// ratio over speed.
func MaxCompression() *Config {
	c := AutoDetect()
	c.CompressionLevel = 22
	c.AdaptiveCompression = false
	c.MaxBatchSize /= 2
	return c
}

// AdaptiveLevel resolves the compression level to use for a payload of
// the given size, per spec section 4.2's adaptive compression bands.
func (c *Config) AdaptiveLevel(size int) int {
	if !c.AdaptiveCompression {
		return c.CompressionLevel
	}
	switch {
	case size <= 1<<20:
		return c.CompressionLevel
	case size <= 10<<20:
		return maxInt(c.CompressionLevel-2, 6)
	case size <= 100<<20:
		return maxInt(c.CompressionLevel-4, 6)
	default:
		return 6
	}
}

// OptimalChunkSize picks a chunk size for parallel compression of a
// payload of the given total size.
func (c *Config) OptimalChunkSize(totalSize int) int {
	if totalSize < c.ChunkSize {
		return totalSize
	}
	optimalChunks := c.ThreadCount * 2
	if optimalChunks == 0 {
		optimalChunks = 1
	}
	calculated := totalSize / optimalChunks
	return clamp(calculated, c.ChunkSize/4, c.ChunkSize*4)
}

// ShouldUseParallel reports whether parallel compression should be used
// for a payload of the given size.
func (c *Config) ShouldUseParallel(dataSize int) bool {
	return dataSize > c.ChunkSize && c.ThreadCount > 1
}

// Validate rejects configurations spec section 6.6 calls out as invalid.
func (c *Config) Validate() error {
	if c.ThreadCount == 0 {
		return fmt.Errorf("perfconfig: thread count must be greater than 0")
	}
	if c.MaxMemoryMB < 128 {
		return fmt.Errorf("perfconfig: max memory must be at least 128MB")
	}
	if c.CompressionLevel < 1 || c.CompressionLevel > 22 {
		return fmt.Errorf("perfconfig: compression level must be between 1 and 22")
	}
	if c.IOBufferSize < 1024 {
		return fmt.Errorf("perfconfig: io buffer size must be at least 1KB")
	}
	if c.ChunkSize < c.IOBufferSize {
		return fmt.Errorf("perfconfig: chunk size must be at least as large as io buffer size")
	}
	if c.MaxBatchSize == 0 {
		return fmt.Errorf("perfconfig: max batch size must be greater than 0")
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
