// Package modelcache holds loaded detection models shared across all
// concurrent scans. Loads are serialized per model name so a model is loaded
// at most once no matter how many scans race for it, while unrelated models
// load in parallel.
package modelcache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/model"
)

type ModelCache struct {
	mu            sync.Mutex
	models        map[string]model.Model
	hits          map[string]int64
	loadDurations map[string]time.Duration
	nameLocks     map[string]*sync.Mutex

	providers []string
	logger    *logrus.Logger
}

// PerformanceStats is a point-in-time view of the cache.
type PerformanceStats struct {
	CachedModels  []string                 `json:"cached_models"`
	HitCounts     map[string]int64         `json:"hit_counts"`
	LoadDurations map[string]time.Duration `json:"load_durations"`
	Providers     []string                 `json:"providers"`
}

// New builds an empty cache. providers is the configured execution-provider
// preference order, carried opaquely for observability.
func New(providers []string, logger *logrus.Logger) *ModelCache {
	return &ModelCache{
		models:        make(map[string]model.Model),
		hits:          make(map[string]int64),
		loadDurations: make(map[string]time.Duration),
		nameLocks:     make(map[string]*sync.Mutex),
		providers:     providers,
		logger:        logger,
	}
}

// GetModel returns the cached model for name, invoking loader on first use.
// Concurrent callers for the same name block on a per-name lock and all
// receive the instance produced by the single loader invocation. Loader
// failures propagate unmodified and nothing is cached.
func (c *ModelCache) GetModel(ctx context.Context, name string, loader model.Loader) (model.Model, error) {
	c.mu.Lock()
	if m, ok := c.models[name]; ok {
		c.hits[name]++
		c.mu.Unlock()
		return m, nil
	}
	nameLock := c.nameLock(name)
	c.mu.Unlock()

	nameLock.Lock()
	defer nameLock.Unlock()

	// Another caller may have loaded it while we waited on the name lock.
	c.mu.Lock()
	if m, ok := c.models[name]; ok {
		c.hits[name]++
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	start := time.Now()
	m, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	c.mu.Lock()
	c.models[name] = m
	c.loadDurations[name] = elapsed
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"model":    name,
		"duration": elapsed.String(),
	}).Info("model loaded")

	return m, nil
}

// nameLock returns the per-name load lock, creating it on demand. Caller must
// hold c.mu.
func (c *ModelCache) nameLock(name string) *sync.Mutex {
	if l, ok := c.nameLocks[name]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.nameLocks[name] = l
	return l
}

// PreloadModel is a best-effort GetModel, failures are logged and reported as
// a boolean instead of propagating.
func (c *ModelCache) PreloadModel(ctx context.Context, name string, loader model.Loader) bool {
	if _, err := c.GetModel(ctx, name, loader); err != nil {
		c.logger.WithError(err).WithField("model", name).Warn("model preload failed")
		return false
	}
	return true
}

// ClearCache drops all models, hit counters and load locks.
func (c *ModelCache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.models = make(map[string]model.Model)
	c.hits = make(map[string]int64)
	c.loadDurations = make(map[string]time.Duration)
	c.nameLocks = make(map[string]*sync.Mutex)
}

// GetPerformanceStats returns cached model names, per-name hit counts, load
// durations and the configured providers.
func (c *ModelCache) GetPerformanceStats() PerformanceStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := PerformanceStats{
		CachedModels:  make([]string, 0, len(c.models)),
		HitCounts:     make(map[string]int64, len(c.hits)),
		LoadDurations: make(map[string]time.Duration, len(c.loadDurations)),
		Providers:     append([]string(nil), c.providers...),
	}
	for name := range c.models {
		stats.CachedModels = append(stats.CachedModels, name)
	}
	for name, hits := range c.hits {
		stats.HitCounts[name] = hits
	}
	for name, d := range c.loadDurations {
		stats.LoadDurations[name] = d
	}
	return stats
}
