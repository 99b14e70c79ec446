package security

import (
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/scanner"
	"github.com/shieldgate/shieldgate/pkg/scanner/bias"
	"github.com/shieldgate/shieldgate/pkg/scanner/pii"
	"github.com/shieldgate/shieldgate/pkg/scanner/prompt_injection"
	"github.com/shieldgate/shieldgate/pkg/scanner/toxicity"
	"github.com/shieldgate/shieldgate/pkg/types"
)

// ScannerFactory materializes one scanner variant.
type ScannerFactory func(
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) scanner.Scanner

// defaultFactories is the dispatch table from scanner type to constructor.
// Tests override entries through WithScannerFactory.
func defaultFactories() map[types.ScannerType]ScannerFactory {
	return map[types.ScannerType]ScannerFactory{
		types.ScannerPromptInjection: func(settings config.ScannerSettings, timeoutMs int64, models *modelcache.ModelCache, logger *logrus.Logger) scanner.Scanner {
			return prompt_injection.New(settings, timeoutMs, models, logger)
		},
		types.ScannerToxicity: func(settings config.ScannerSettings, timeoutMs int64, models *modelcache.ModelCache, logger *logrus.Logger) scanner.Scanner {
			return toxicity.New(settings, timeoutMs, models, logger)
		},
		types.ScannerPII: func(settings config.ScannerSettings, timeoutMs int64, models *modelcache.ModelCache, logger *logrus.Logger) scanner.Scanner {
			return pii.New(settings, timeoutMs, models, logger)
		},
		types.ScannerBias: func(settings config.ScannerSettings, timeoutMs int64, models *modelcache.ModelCache, logger *logrus.Logger) scanner.Scanner {
			return bias.New(settings, timeoutMs, models, logger)
		},
	}
}
