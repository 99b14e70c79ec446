// Package resultcache stores previously computed scan results keyed by
// (text, direction). Backends share one contract, the orchestrator does not
// care whether results live in memory or Redis.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shieldgate/shieldgate/pkg/types"
)

const scanKeyPattern = "scan:%s:%s"

// ErrNotFound signals a cache miss. Backend-specific miss errors are
// normalized to this sentinel.
var ErrNotFound = errors.New("scan result not found")

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore --with-expecter
type Client interface {
	Get(ctx context.Context, text string, direction types.Direction) (*types.SecurityResult, error)
	Set(ctx context.Context, text string, direction types.Direction, result *types.SecurityResult, ttl time.Duration) error
	ClearAll(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Statistics(ctx context.Context) map[string]interface{}
}

// Key hashes the scanned text so arbitrary payloads produce bounded keys.
func Key(text string, direction types.Direction) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf(scanKeyPattern, direction, hex.EncodeToString(sum[:]))
}
