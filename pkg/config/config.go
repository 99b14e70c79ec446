package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/shieldgate/shieldgate/pkg/types"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

// SecurityConfig drives the scanning engine. Loaded externally, the engine
// never mutates it.
type SecurityConfig struct {
	LazyLoading     bool                       `mapstructure:"lazy_loading"`
	ScanTimeoutMs   int64                      `mapstructure:"scan_timeout_ms"`
	CacheEnabled    bool                       `mapstructure:"cache_enabled"`
	CacheBackend    string                     `mapstructure:"cache_backend"`
	CacheTTLSeconds int                        `mapstructure:"cache_ttl_seconds"`
	LogScans        bool                       `mapstructure:"log_scans"`
	SeverityWeights map[string]float64         `mapstructure:"severity_weights"`
	ONNXProviders   []string                   `mapstructure:"onnx_providers"`
	Scanners        map[string]ScannerSettings `mapstructure:"scanners"`
}

// ScannerSettings configures one scanner variant. Params carries
// variant-specific knobs decoded with mapstructure inside the scanner.
type ScannerSettings struct {
	Enabled   bool                   `mapstructure:"enabled"`
	Threshold float64                `mapstructure:"threshold"`
	Action    string                 `mapstructure:"action"`
	ModelID   string                 `mapstructure:"model_id"`
	BaseURL   string                 `mapstructure:"base_url"`
	Token     string                 `mapstructure:"token"`
	Params    map[string]interface{} `mapstructure:"params"`
}

// Scanner returns the settings for a scanner type, falling back to an enabled
// default when the type is absent from the config file.
func (c *SecurityConfig) Scanner(t types.ScannerType) ScannerSettings {
	if s, ok := c.Scanners[string(t)]; ok {
		return s
	}
	return ScannerSettings{Enabled: true, Threshold: defaultThreshold(t), ModelID: defaultModelID(t)}
}

func defaultThreshold(t types.ScannerType) float64 {
	switch t {
	case types.ScannerToxicity:
		return 0.7
	default:
		return 0.5
	}
}

func defaultModelID(t types.ScannerType) string {
	switch t {
	case types.ScannerPromptInjection:
		return "jailbreak-classifier-v1"
	case types.ScannerToxicity:
		return "toxicity-classifier-v1"
	case types.ScannerPII:
		return "pii-recognizer-v1"
	case types.ScannerBias:
		return "bias-keywords-v1"
	default:
		return string(t)
	}
}

// DefaultSecurityConfig returns the configuration used when no file is present.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		LazyLoading:     true,
		ScanTimeoutMs:   5000,
		CacheEnabled:    true,
		CacheBackend:    "memory",
		CacheTTLSeconds: 300,
		LogScans:        true,
		SeverityWeights: map[string]float64{
			string(types.SeverityLow):      0.1,
			string(types.SeverityMedium):   0.3,
			string(types.SeverityHigh):     0.6,
			string(types.SeverityCritical): 1.0,
		},
		ONNXProviders: []string{"CPUExecutionProvider"},
		Scanners:      map[string]ScannerSettings{},
	}
}

// Load reads config.yaml from configPath (plus ./config and .) with
// environment variable overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{Security: DefaultSecurityConfig()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	defaults := DefaultSecurityConfig()
	v.SetDefault("security.lazy_loading", defaults.LazyLoading)
	v.SetDefault("security.scan_timeout_ms", defaults.ScanTimeoutMs)
	v.SetDefault("security.cache_enabled", defaults.CacheEnabled)
	v.SetDefault("security.cache_backend", defaults.CacheBackend)
	v.SetDefault("security.cache_ttl_seconds", defaults.CacheTTLSeconds)
	v.SetDefault("security.log_scans", defaults.LogScans)
	v.SetDefault("security.severity_weights", defaults.SeverityWeights)
	v.SetDefault("security.onnx_providers", defaults.ONNXProviders)
}
