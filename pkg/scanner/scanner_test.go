package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldgate/shieldgate/pkg/config"
	domain "github.com/shieldgate/shieldgate/pkg/domain/errors"
	"github.com/shieldgate/shieldgate/pkg/types"
)

func newTestBase(settings config.ScannerSettings, timeoutMs int64) *Base {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewBase("test_scanner", types.ScannerToxicity, settings, timeoutMs, nil, logger)
}

func noopDetect(_ context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
	return nil, nil
}

func TestBase_DisabledScannerReportsNothing(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: false}, 1000)
	base.SetHooks(nil, func(_ context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
		t.Error("detect must not run for a disabled scanner")
		return nil, nil
	})

	violations, err := base.Scan(context.Background(), "anything", types.DirectionInput)
	assert.NoError(t, err)
	assert.Nil(t, violations)
	assert.False(t, base.Initialized())
}

func TestBase_InitializeIdempotent(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 1000)

	var loads int64
	base.SetHooks(func(_ context.Context) error {
		atomic.AddInt64(&loads, 1)
		return nil
	}, noopDetect)

	require.NoError(t, base.Initialize(context.Background()))
	require.NoError(t, base.Initialize(context.Background()))

	assert.True(t, base.Initialized())
	assert.Equal(t, int64(1), atomic.LoadInt64(&loads))
}

func TestBase_InitializeFailureAllowsRetry(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 1000)

	boom := errors.New("model download failed")
	calls := 0
	base.SetHooks(func(_ context.Context) error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	}, noopDetect)

	err := base.Initialize(context.Background())
	require.Error(t, err)

	var initErr *domain.ScannerInitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "test_scanner", initErr.ScannerName)
	assert.ErrorIs(t, err, boom)
	assert.False(t, base.Initialized())

	require.NoError(t, base.Initialize(context.Background()))
	assert.True(t, base.Initialized())
}

func TestBase_ScanLazilyInitializes(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 1000)

	loaded := false
	base.SetHooks(func(_ context.Context) error {
		loaded = true
		return nil
	}, noopDetect)

	_, err := base.Scan(context.Background(), "text", types.DirectionInput)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.True(t, base.Initialized())
}

func TestBase_ScanTimeout(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 20)
	base.SetHooks(nil, func(ctx context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
		}
		return nil, nil
	})

	_, err := base.Scan(context.Background(), "slow text", types.DirectionInput)
	require.Error(t, err)

	var timeoutErr *domain.ScannerTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int64(20), timeoutErr.TimeoutMs)
}

func TestBase_ScanParentCancellation(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 60000)
	base.SetHooks(nil, func(ctx context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := base.Scan(ctx, "text", types.DirectionInput)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var timeoutErr *domain.ScannerTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestBase_ScanRecoversPanic(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 1000)
	base.SetHooks(nil, func(_ context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
		panic("detector blew up")
	})

	violations, err := base.Scan(context.Background(), "text", types.DirectionInput)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Nil(t, violations)
}

func TestBase_ScanDetectionError(t *testing.T) {
	base := newTestBase(config.ScannerSettings{Enabled: true}, 1000)

	boom := errors.New("inference unavailable")
	base.SetHooks(nil, func(_ context.Context, _ string, _ types.Direction) ([]types.Violation, error) {
		return nil, boom
	})

	_, err := base.Scan(context.Background(), "text", types.DirectionInput)
	assert.ErrorIs(t, err, boom)
}
