package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Resource profiles accepted by Config.Profile.
const (
	ProfileLowMem      = "Cloud-Run-LowMem"
	ProfileSafeServing = "Safe-Serving"
	ProfileImport      = "Import-Heavy"
)

// Config holds the configuration for a catalog database.
type Config struct {
	// DataDir is the environment directory. Badger files live in DataDir/badger.
	DataDir string

	// InMemory enables in-memory mode (useful for testing).
	InMemory bool

	// BlockCacheSize is the size of the block cache in bytes.
	BlockCacheSize int64

	// IndexCacheSize is the size of the index cache in bytes.
	IndexCacheSize int64

	// Compression enables ZSTD block compression on top of the s2-encoded
	// template payloads.
	Compression bool

	// SyncWrites enables synchronous writes.
	SyncWrites bool

	// MemTableSize is the size of the memtable in bytes. Zero keeps the badger default.
	MemTableSize int64

	// NumMemtables caps memtables waiting to be flushed. Zero keeps the badger default.
	NumMemtables int

	// Profile is one of the Profile* constants. Defaults to ProfileSafeServing.
	Profile string

	ReadOnly        bool
	BypassLockGuard bool
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.BlockCacheSize <= 0 {
		return fmt.Errorf("BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	switch c.Profile {
	case "", ProfileLowMem, ProfileSafeServing, ProfileImport:
	default:
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	return nil
}

// DefaultConfig returns a serving configuration rooted at dataDir.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		BlockCacheSize: 256 << 20, // 256MB
		IndexCacheSize: 64 << 20,  // 64MB
		Compression:    true,
		Profile:        ProfileSafeServing,
	}
}

// InMemoryConfig returns a configuration for tests and throwaway catalogs.
func InMemoryConfig() *Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	return cfg
}

// buildBadgerOptions converts Config to badger.Options based on Profile.
func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		opts := badger.DefaultOptions("")
		opts.InMemory = true
		opts.Logger = nil
		return opts
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.Logger = nil
	opts.BypassLockGuard = cfg.BypassLockGuard
	opts.ReadOnly = cfg.ReadOnly
	opts.BloomFalsePositive = 0.01

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case ProfileLowMem:
		opts.ValueLogFileSize = 32 << 20
		opts.NumCompactors = 2
		opts.IndexCacheSize = 16 << 20
	case ProfileImport:
		opts.ValueLogFileSize = 256 << 20
		opts.NumCompactors = 4
	default:
		// Badger v4 requires at least 2 compactors.
		opts.ValueLogFileSize = 64 << 20
		opts.NumCompactors = 2
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	if cfg.Profile != ProfileLowMem {
		opts.IndexCacheSize = cfg.IndexCacheSize
	}
	opts.SyncWrites = cfg.SyncWrites

	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	return opts
}
