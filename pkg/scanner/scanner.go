// Package scanner defines the capability contract shared by all detection
// units and the lifecycle plumbing they layer over the model cache.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	domain "github.com/shieldgate/shieldgate/pkg/domain/errors"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/types"
)

// Scanner wraps one detection model or heuristic. Implementations are safe for
// concurrent use once initialized.
type Scanner interface {
	Name() string
	Type() types.ScannerType
	Enabled() bool
	Initialized() bool
	// Initialize loads the scanner's model. Idempotent, a failure leaves the
	// scanner uninitialized so a later call can retry.
	Initialize(ctx context.Context) error
	// Scan detects violations in text. A disabled scanner reports nothing.
	// Detection failures and timeouts surface as a non-nil error alongside an
	// empty violation list, they never panic through.
	Scan(ctx context.Context, text string, direction types.Direction) ([]types.Violation, error)
}

type state int32

const (
	stateUninitialized state = iota
	stateInitializing
	stateInitialized
)

// Base carries the lifecycle shared by every scanner variant. Variants provide
// loadFn (model materialization through the cache) and detectFn (result
// interpretation) and embed Base for everything else.
type Base struct {
	name        string
	scannerType types.ScannerType
	settings    config.ScannerSettings
	timeout     time.Duration
	logger      *logrus.Logger
	models      *modelcache.ModelCache

	mu    sync.Mutex
	state state

	loadFn   func(ctx context.Context) error
	detectFn func(ctx context.Context, text string, direction types.Direction) ([]types.Violation, error)
}

// NewBase wires the shared lifecycle. timeoutMs bounds each detection call.
func NewBase(
	name string,
	scannerType types.ScannerType,
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) *Base {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}
	return &Base{
		name:        name,
		scannerType: scannerType,
		settings:    settings,
		timeout:     time.Duration(timeoutMs) * time.Millisecond,
		models:      models,
		logger:      logger,
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Type() types.ScannerType {
	return b.scannerType
}

func (b *Base) Enabled() bool {
	return b.settings.Enabled
}

func (b *Base) Settings() config.ScannerSettings {
	return b.settings
}

func (b *Base) Models() *modelcache.ModelCache {
	return b.models
}

func (b *Base) Logger() *logrus.Logger {
	return b.logger
}

func (b *Base) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateInitialized
}

// SetHooks installs the variant-specific load and detect routines.
func (b *Base) SetHooks(
	loadFn func(ctx context.Context) error,
	detectFn func(ctx context.Context, text string, direction types.Direction) ([]types.Violation, error),
) {
	b.loadFn = loadFn
	b.detectFn = detectFn
}

func (b *Base) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateInitialized {
		return nil
	}

	b.state = stateInitializing
	if b.loadFn != nil {
		if err := b.loadFn(ctx); err != nil {
			b.state = stateUninitialized
			return domain.NewScannerInitializationError(b.name, err)
		}
	}
	b.state = stateInitialized

	b.logger.WithField("scanner", b.name).Debug("scanner initialized")
	return nil
}

func (b *Base) Scan(ctx context.Context, text string, direction types.Direction) ([]types.Violation, error) {
	if !b.settings.Enabled {
		return nil, nil
	}

	if !b.Initialized() {
		if err := b.Initialize(ctx); err != nil {
			b.logger.WithError(err).WithField("scanner", b.name).Error("scan skipped, initialization failed")
			return nil, err
		}
	}

	scanCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type detection struct {
		violations []types.Violation
		err        error
	}
	done := make(chan detection, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- detection{err: fmt.Errorf("scanner '%s' panicked: %v", b.name, r)}
			}
		}()
		violations, err := b.detectFn(scanCtx, text, direction)
		done <- detection{violations: violations, err: err}
	}()

	select {
	case <-scanCtx.Done():
		// A canceled parent context is not a budget overrun.
		if err := ctx.Err(); err != nil {
			b.logger.WithField("scanner", b.name).Debug("scan canceled")
			return nil, err
		}
		err := domain.NewScannerTimeoutError(b.name, b.timeout.Milliseconds())
		b.logger.WithField("scanner", b.name).Warn("scan timed out")
		return nil, err
	case d := <-done:
		if d.err != nil {
			b.logger.WithError(d.err).WithField("scanner", b.name).Error("scan failed")
			return nil, d.err
		}
		return d.violations, nil
	}
}
