// Package security orchestrates the scanners: it resolves which ones apply per
// direction, materializes them lazily, fans scans out concurrently, folds the
// findings into a scored result and keeps the result cache and running metrics
// up to date.
package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shieldgate/shieldgate/pkg/config"
	domain "github.com/shieldgate/shieldgate/pkg/domain/errors"
	"github.com/shieldgate/shieldgate/pkg/infra/prometheus"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/resultcache"
	"github.com/shieldgate/shieldgate/pkg/scanner"
	"github.com/shieldgate/shieldgate/pkg/types"
)

const logTextLimit = 80

type Service struct {
	cfg    config.SecurityConfig
	logger *logrus.Logger
	models *modelcache.ModelCache
	cache  resultcache.Client

	factories map[types.ScannerType]ScannerFactory

	initMu      sync.Mutex
	initialized bool

	scannerMu     sync.Mutex
	scanners      map[types.ScannerType]scanner.Scanner
	scannerLocks  map[types.ScannerType]*sync.Mutex
	initDurations map[types.ScannerType]time.Duration

	weights       map[types.SeverityLevel]float64
	inputMetrics  *types.ScanMetrics
	outputMetrics *types.ScanMetrics
	startTime     time.Time
}

// Option customizes a Service at construction.
type Option func(*Service)

// WithScannerFactory overrides the constructor for one scanner type. Used by
// tests to inject broken or instrumented scanners.
func WithScannerFactory(t types.ScannerType, factory ScannerFactory) Option {
	return func(s *Service) {
		s.factories[t] = factory
	}
}

func NewService(
	cfg config.SecurityConfig,
	cache resultcache.Client,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:           cfg,
		logger:        logger,
		models:        models,
		cache:         cache,
		factories:     defaultFactories(),
		scanners:      make(map[types.ScannerType]scanner.Scanner),
		scannerLocks:  make(map[types.ScannerType]*sync.Mutex),
		initDurations: make(map[types.ScannerType]time.Duration),
		weights:       severityWeights(cfg.SeverityWeights),
		inputMetrics:  types.NewScanMetrics(),
		outputMetrics: types.NewScanMetrics(),
		startTime:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize prepares the service once. With lazy loading disabled every
// configured scanner is resolved and initialized eagerly, otherwise scanners
// materialize on first use.
func (s *Service) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.cache.HealthCheck(ctx); err != nil {
		return domain.NewSecurityServiceError("initialize", err)
	}

	if !s.cfg.LazyLoading {
		for _, t := range s.configuredScannerTypes() {
			if _, err := s.getScanner(ctx, t); err != nil {
				return domain.NewScannerServiceError("initialize", string(t), err)
			}
		}
	}

	s.initialized = true
	s.logger.WithField("lazy_loading", s.cfg.LazyLoading).Info("security service initialized")
	return nil
}

// ValidateInput scans text entering the pipeline.
func (s *Service) ValidateInput(ctx context.Context, text string, metadata map[string]interface{}) (*types.SecurityResult, error) {
	return s.validate(ctx, text, types.DirectionInput, metadata)
}

// ValidateOutput scans text leaving the pipeline.
func (s *Service) ValidateOutput(ctx context.Context, text string, metadata map[string]interface{}) (*types.SecurityResult, error) {
	return s.validate(ctx, text, types.DirectionOutput, metadata)
}

func (s *Service) validate(
	ctx context.Context,
	text string,
	direction types.Direction,
	metadata map[string]interface{},
) (*types.SecurityResult, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	metrics := s.metricsFor(direction)
	operation := fmt.Sprintf("validate_%s", direction)

	if s.cfg.CacheEnabled {
		cached, err := s.cache.Get(ctx, text, direction)
		switch {
		case err == nil:
			// A hit counts as a successful zero-cost scan.
			metrics.Record(0, len(cached.Violations), true)
			prometheus.CacheHitsTotal.WithLabelValues(string(direction)).Inc()
			prometheus.ScanTotal.WithLabelValues(string(direction), "cached").Inc()
			return cached, nil
		case errors.Is(err, resultcache.ErrNotFound):
			// Fall through to a real scan.
		default:
			metrics.Record(0, 0, false)
			prometheus.ScanTotal.WithLabelValues(string(direction), "error").Inc()
			return nil, domain.NewSecurityServiceError(operation, err)
		}
	}

	start := time.Now()

	scanners, scannerResults := s.resolveScanners(ctx, direction)
	violations := s.dispatch(ctx, scanners, text, direction, scannerResults)

	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	score := computeScore(violations, s.weights)
	result := types.NewSecurityResult(violations, score, text, durationMs, scannerResults, metadata)

	if s.cfg.CacheEnabled {
		ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second
		if err := s.cache.Set(ctx, text, direction, result, ttl); err != nil {
			metrics.Record(durationMs, len(violations), false)
			prometheus.ScanTotal.WithLabelValues(string(direction), "error").Inc()
			return nil, domain.NewSecurityServiceError(operation, err)
		}
	}

	metrics.Record(durationMs, len(violations), true)
	s.observe(direction, result)

	if s.cfg.LogScans {
		s.logScan(direction, text, result)
	}

	return result, nil
}

// resolveScanners returns the materialized scanner set for a direction in
// dispatch order. A scanner that fails to materialize is skipped with a failed
// entry in scannerResults, it never aborts the request.
func (s *Service) resolveScanners(
	ctx context.Context,
	direction types.Direction,
) ([]scanner.Scanner, map[string]types.ScannerResult) {
	scannerResults := make(map[string]types.ScannerResult)

	var scanners []scanner.Scanner
	for _, t := range types.ScannersForDirection(direction) {
		sc, err := s.getScanner(ctx, t)
		if err != nil {
			s.logger.WithError(err).WithField("scanner_type", t).Error("failed to materialize scanner")
			scannerResults[string(t)] = types.ScannerResult{Success: false, Error: err.Error()}
			continue
		}
		scanners = append(scanners, sc)
	}
	return scanners, scannerResults
}

// getScanner returns the materialized scanner for a type, building and
// initializing it under a per-type lock on first use.
func (s *Service) getScanner(ctx context.Context, t types.ScannerType) (scanner.Scanner, error) {
	s.scannerMu.Lock()
	if sc, ok := s.scanners[t]; ok {
		s.scannerMu.Unlock()
		return sc, nil
	}
	typeLock, ok := s.scannerLocks[t]
	if !ok {
		typeLock = &sync.Mutex{}
		s.scannerLocks[t] = typeLock
	}
	s.scannerMu.Unlock()

	typeLock.Lock()
	defer typeLock.Unlock()

	s.scannerMu.Lock()
	if sc, ok := s.scanners[t]; ok {
		s.scannerMu.Unlock()
		return sc, nil
	}
	s.scannerMu.Unlock()

	factory, ok := s.factories[t]
	if !ok {
		return nil, domain.NewScannerConfigurationError(string(t), "no factory registered")
	}

	settings := s.cfg.Scanner(t)
	sc := factory(settings, s.cfg.ScanTimeoutMs, s.models, s.logger)

	start := time.Now()
	if sc.Enabled() {
		if err := sc.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)

	s.scannerMu.Lock()
	s.scanners[t] = sc
	s.initDurations[t] = elapsed
	s.scannerMu.Unlock()

	return sc, nil
}

// dispatch fans the scan out across all scanners concurrently and merges
// violations in dispatch order so output is deterministic.
func (s *Service) dispatch(
	ctx context.Context,
	scanners []scanner.Scanner,
	text string,
	direction types.Direction,
	scannerResults map[string]types.ScannerResult,
) []types.Violation {
	type outcome struct {
		violations []types.Violation
		result     types.ScannerResult
	}
	outcomes := make([]outcome, len(scanners))

	var wg sync.WaitGroup
	for i, sc := range scanners {
		wg.Add(1)
		go func(i int, sc scanner.Scanner) {
			defer wg.Done()

			scanStart := time.Now()
			violations, err := sc.Scan(ctx, text, direction)
			elapsed := float64(time.Since(scanStart).Microseconds()) / 1000.0

			result := types.ScannerResult{
				Success:        err == nil,
				DurationMs:     elapsed,
				ViolationCount: len(violations),
			}
			if err != nil {
				result.Error = err.Error()
				violations = nil
			}
			outcomes[i] = outcome{violations: violations, result: result}
		}(i, sc)
	}
	wg.Wait()

	violations := []types.Violation{}
	for i, sc := range scanners {
		scannerResults[sc.Name()] = outcomes[i].result
		violations = append(violations, outcomes[i].violations...)
	}
	return violations
}

// Warmup eagerly materializes the given scanner types (all configured ones
// when empty) and returns per-scanner elapsed seconds. One failing scanner
// does not stop the others from warming.
func (s *Service) Warmup(ctx context.Context, scannerTypes ...types.ScannerType) (map[string]float64, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	if len(scannerTypes) == 0 {
		scannerTypes = s.configuredScannerTypes()
	}

	var mu sync.Mutex
	elapsed := make(map[string]float64, len(scannerTypes))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range scannerTypes {
		t := t
		g.Go(func() error {
			start := time.Now()
			_, err := s.getScanner(gctx, t)
			seconds := time.Since(start).Seconds()

			mu.Lock()
			elapsed[string(t)] = seconds
			mu.Unlock()

			if err != nil {
				s.logger.WithError(err).WithField("scanner_type", t).Warn("scanner warmup failed")
			}
			return nil
		})
	}
	// The closures always return nil, one broken scanner must not cancel the
	// warmup of its siblings.
	_ = g.Wait()
	return elapsed, nil
}

// HealthCheck reports initialization state, per-scanner status, uptime, memory
// usage and the health of both caches.
func (s *Service) HealthCheck(ctx context.Context) map[string]interface{} {
	s.initMu.Lock()
	initialized := s.initialized
	s.initMu.Unlock()

	scannerStatus := make(map[string]interface{})
	s.scannerMu.Lock()
	for _, t := range s.configuredScannerTypes() {
		status := map[string]interface{}{
			"lazy":        true,
			"initialized": false,
		}
		if sc, ok := s.scanners[t]; ok {
			status["lazy"] = false
			status["initialized"] = sc.Initialized()
			status["enabled"] = sc.Enabled()
			if d, ok := s.initDurations[t]; ok {
				status["init_duration_ms"] = d.Milliseconds()
			}
		}
		scannerStatus[string(t)] = status
	}
	s.scannerMu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	cacheHealthy := true
	if err := s.cache.HealthCheck(ctx); err != nil {
		cacheHealthy = false
	}

	return map[string]interface{}{
		"initialized":     initialized,
		"lazy_loading":    s.cfg.LazyLoading,
		"scanners":        scannerStatus,
		"uptime_seconds":  time.Since(s.startTime).Seconds(),
		"memory_usage_mb": float64(mem.Alloc) / (1024 * 1024),
		"model_cache":     s.models.GetPerformanceStats(),
		"result_cache_ok": cacheHealthy,
		"result_cache":    s.cache.Statistics(ctx),
	}
}

// GetMetrics returns a point-in-time snapshot of both directions.
func (s *Service) GetMetrics() types.MetricsSnapshot {
	scannerHealth := make(map[string]bool)
	s.scannerMu.Lock()
	for t, sc := range s.scanners {
		scannerHealth[string(t)] = sc.Initialized()
	}
	s.scannerMu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	healthy := true
	for _, ok := range scannerHealth {
		if !ok {
			healthy = false
			break
		}
	}

	return types.MetricsSnapshot{
		Input:         s.inputMetrics.Snapshot(),
		Output:        s.outputMetrics.Snapshot(),
		ScannerHealth: scannerHealth,
		Healthy:       healthy,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		MemoryUsageMB: float64(mem.Alloc) / (1024 * 1024),
		Timestamp:     time.Now().UTC(),
	}
}

// ResetMetrics zeroes the running counters for both directions.
func (s *Service) ResetMetrics() {
	s.inputMetrics.Reset()
	s.outputMetrics.Reset()
}

// ClearCache drops every cached scan result.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.ClearAll(ctx); err != nil {
		return domain.NewSecurityServiceError("clear_cache", err)
	}
	return nil
}

// GetCacheStatistics exposes the backend statistics.
func (s *Service) GetCacheStatistics(ctx context.Context) map[string]interface{} {
	return s.cache.Statistics(ctx)
}

// GetConfiguration returns the effective engine configuration.
func (s *Service) GetConfiguration() map[string]interface{} {
	scanners := make(map[string]interface{})
	for _, t := range s.configuredScannerTypes() {
		settings := s.cfg.Scanner(t)
		scanners[string(t)] = map[string]interface{}{
			"enabled":   settings.Enabled,
			"threshold": settings.Threshold,
			"action":    settings.Action,
			"model_id":  settings.ModelID,
		}
	}

	weights := make(map[string]float64, len(s.weights))
	for level, w := range s.weights {
		weights[string(level)] = w
	}

	return map[string]interface{}{
		"lazy_loading":      s.cfg.LazyLoading,
		"scan_timeout_ms":   s.cfg.ScanTimeoutMs,
		"cache_enabled":     s.cfg.CacheEnabled,
		"cache_backend":     s.cfg.CacheBackend,
		"cache_ttl_seconds": s.cfg.CacheTTLSeconds,
		"severity_weights":  weights,
		"onnx_providers":    s.cfg.ONNXProviders,
		"scanners":          scanners,
	}
}

func (s *Service) configuredScannerTypes() []types.ScannerType {
	return []types.ScannerType{
		types.ScannerPromptInjection,
		types.ScannerToxicity,
		types.ScannerPII,
		types.ScannerBias,
	}
}

func (s *Service) metricsFor(direction types.Direction) *types.ScanMetrics {
	if direction == types.DirectionOutput {
		return s.outputMetrics
	}
	return s.inputMetrics
}

func (s *Service) observe(direction types.Direction, result *types.SecurityResult) {
	prometheus.ScanTotal.WithLabelValues(string(direction), "ok").Inc()
	prometheus.ScanLatency.WithLabelValues(string(direction)).Observe(result.ScanDurationMs)
	for _, v := range result.Violations {
		prometheus.ViolationsTotal.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}
}

func (s *Service) logScan(direction types.Direction, text string, result *types.SecurityResult) {
	truncated := text
	if len(truncated) > logTextLimit {
		truncated = truncated[:logTextLimit-3] + "..."
	}

	s.logger.WithFields(logrus.Fields{
		"direction":   direction,
		"is_safe":     result.IsSafe,
		"score":       result.Score,
		"violations":  len(result.Violations),
		"duration_ms": result.ScanDurationMs,
		"scanners":    len(result.ScannerResults),
		"text":        truncated,
	}).Info("scan completed")
}
