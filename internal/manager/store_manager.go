package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/duynguyendang/gerd/pkg/catalog"
	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/erd"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

// EnvironmentMetadata describes one catalog environment exposed by the API.
type EnvironmentMetadata struct {
	ID          string `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// MemoryProfile defines the memory optimization strategy
type MemoryProfile string

const (
	MemoryProfileDefault MemoryProfile = "default"
	MemoryProfileLow     MemoryProfile = "low"
	MaxOpenCatalogs                    = 10
	EnvironmentListTTL                 = 1 * time.Minute

	metadataFile = "environment.yaml"
)

type openCatalog struct {
	store    *catalog.Store
	resolver *catalog.CachedResolver
}

// StoreManager manages the catalog stores of several environments, each
// kept in its own directory under baseDir.
type StoreManager struct {
	baseDir       string
	catalogs      *lru.Cache[string, *openCatalog]
	mu            sync.RWMutex
	profile       MemoryProfile
	readOnly      bool
	cachedList    []EnvironmentMetadata
	lastListBuild time.Time
}

// NewStoreManager creates a new StoreManager.
func NewStoreManager(baseDir string, profile MemoryProfile, readOnly bool) *StoreManager {
	cache, _ := lru.NewWithEvict[string, *openCatalog](MaxOpenCatalogs, func(key string, value *openCatalog) {
		_ = value.store.Close()
	})

	return &StoreManager{
		baseDir:  baseDir,
		catalogs: cache,
		profile:  profile,
		readOnly: readOnly,
	}
}

func validEnvironment(env string) error {
	if env == "" || env == "." || env == ".." || strings.ContainsAny(env, `/\`) {
		return fmt.Errorf("%w: bad environment name %q", errors.ErrInvalidInput, env)
	}
	return nil
}

func (sm *StoreManager) config(dir string) *catalog.Config {
	cfg := catalog.DefaultConfig(dir)
	cfg.ReadOnly = sm.readOnly
	// Serving processes read while `gerd import` may hold the lock.
	cfg.BypassLockGuard = true

	if sm.profile == MemoryProfileLow {
		cfg.BlockCacheSize = 32 << 20
		cfg.IndexCacheSize = 16 << 20
		cfg.Profile = catalog.ProfileLowMem
	} else {
		cfg.BlockCacheSize = 128 << 20
		cfg.IndexCacheSize = 64 << 20
		cfg.Profile = catalog.ProfileSafeServing
	}
	return cfg
}

func (sm *StoreManager) open(env string) (*openCatalog, error) {
	if oc, ok := sm.catalogs.Get(env); ok {
		return oc, nil
	}
	if err := validEnvironment(env); err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if oc, ok := sm.catalogs.Get(env); ok {
		return oc, nil
	}

	dir := filepath.Join(sm.baseDir, env)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("environment %s: %w", env, errors.ErrNotFound)
	}

	s, err := catalog.Open(sm.config(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog for environment %s: %w", env, err)
	}
	oc := &openCatalog{store: s, resolver: catalog.NewCachedResolver(s, 0, 0)}
	sm.catalogs.Add(env, oc)
	return oc, nil
}

// GetStore returns the catalog of an environment, opening it if necessary.
func (sm *StoreManager) GetStore(env string) (*catalog.Store, error) {
	oc, err := sm.open(env)
	if err != nil {
		return nil, err
	}
	return oc.store, nil
}

// Resolver returns the cached resolver in front of an environment's catalog.
func (sm *StoreManager) Resolver(env string) (erd.SpecResolver, error) {
	oc, err := sm.open(env)
	if err != nil {
		return nil, err
	}
	return oc.resolver, nil
}

// CreateEnvironment makes the directory of a new environment, records its
// metadata and opens its catalog for writing.
func (sm *StoreManager) CreateEnvironment(meta EnvironmentMetadata) (*catalog.Store, error) {
	if sm.readOnly {
		return nil, fmt.Errorf("%w: manager is read-only", errors.ErrInvalidInput)
	}
	if err := validEnvironment(meta.ID); err != nil {
		return nil, err
	}
	dir := filepath.Join(sm.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create environment dir: %w", err)
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write environment metadata: %w", err)
	}

	sm.mu.Lock()
	sm.lastListBuild = time.Time{}
	sm.mu.Unlock()

	return sm.GetStore(meta.ID)
}

// ListEnvironments returns the available environments.
func (sm *StoreManager) ListEnvironments() ([]EnvironmentMetadata, error) {
	sm.mu.RLock()
	if time.Since(sm.lastListBuild) < EnvironmentListTTL && sm.cachedList != nil {
		list := make([]EnvironmentMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		sm.mu.RUnlock()
		return list, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastListBuild) < EnvironmentListTTL && sm.cachedList != nil {
		list := make([]EnvironmentMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		return list, nil
	}

	entries, err := os.ReadDir(sm.baseDir)
	if err != nil {
		return nil, err
	}

	envs := []EnvironmentMetadata{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		meta := EnvironmentMetadata{ID: id, Name: id}

		if data, err := os.ReadFile(filepath.Join(sm.baseDir, id, metadataFile)); err == nil {
			var fileMeta EnvironmentMetadata
			if err := yaml.Unmarshal(data, &fileMeta); err == nil {
				if fileMeta.Name != "" {
					meta.Name = fileMeta.Name
				}
				meta.Description = fileMeta.Description
			}
		}
		envs = append(envs, meta)
	}

	sm.cachedList = envs
	sm.lastListBuild = time.Now()

	list := make([]EnvironmentMetadata, len(envs))
	copy(list, envs)
	return list, nil
}

// CloseAll closes all open catalogs.
func (sm *StoreManager) CloseAll() {
	sm.catalogs.Purge()
}
