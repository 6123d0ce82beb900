package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RefreshInterval controls the idempotent reassessment cycle.
	RefreshInterval time.Duration

	// Record source: a JSON fixture file, or the seeded mock generator
	// when no fixture is configured.
	FixtureFile string
	MockSeed    int64
	MockDays    int
	MockEvents  int

	// Alert feed (feature-flagged; disabled unless brokers are set).
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaAlertTopic  string
	AlertMinSeverity domain.Severity

	// Engine holds the validated scoring rule set, from
	// ENGINE_CONFIG_FILE when set, otherwise the defaults.
	Engine domain.EngineConfig

	// Model holds the classifier training controls.
	Model model.Config
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	minSeverity, err := domain.ParseSeverity(envOrDefault("ALERT_MIN_SEVERITY", "high"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_MIN_SEVERITY: %w", err)
	}

	engineCfg, err := loadEngineConfig(os.Getenv("ENGINE_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	modelCfg := model.DefaultConfig()
	modelCfg.Trees = envInt("MODEL_TREES", modelCfg.Trees)
	modelCfg.MinSamples = envInt("MODEL_MIN_SAMPLES", modelCfg.MinSamples)
	modelCfg.Seed = int64(envInt("MODEL_SEED", int(modelCfg.Seed)))

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,

		FixtureFile: os.Getenv("FIXTURE_FILE"),
		MockSeed:    int64(envInt("MOCK_SEED", 42)),
		MockDays:    envInt("MOCK_DAYS", 30),
		MockEvents:  envInt("MOCK_EVENTS", 50),

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     brokers,
		KafkaAlertTopic:  envOrDefault("KAFKA_ALERT_TOPIC", "risk-alerts"),
		AlertMinSeverity: minSeverity,

		Engine: engineCfg,
		Model:  modelCfg,
	}

	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.Model.Trees < 1 {
		return nil, errors.New("MODEL_TREES must be at least 1")
	}
	if cfg.Model.MinSamples < 2 {
		return nil, errors.New("MODEL_MIN_SAMPLES must be at least 2")
	}
	return cfg, nil
}

// loadEngineConfig reads the scoring rule set from a JSON file, or the
// defaults when no path is configured. A file replaces the rule set
// wholesale rather than patching the defaults, so a partial weight table
// cannot silently merge with leftover default weights. Either way the
// result is validated here, so an unbalanced table fails at load time
// rather than skewing scores silently.
func loadEngineConfig(path string) (domain.EngineConfig, error) {
	cfg := domain.DefaultEngineConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.EngineConfig{}, fmt.Errorf("read engine config: %w", err)
		}
		cfg = domain.EngineConfig{}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return domain.EngineConfig{}, fmt.Errorf("parse engine config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return domain.EngineConfig{}, fmt.Errorf("invalid engine config: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(csv string) []string {
	var brokers []string
	for _, part := range strings.Split(csv, ",") {
		if v := strings.TrimSpace(part); v != "" {
			brokers = append(brokers, v)
		}
	}
	return brokers
}
