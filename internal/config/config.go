package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host                   string
	Port                   string
	PacingUnit             time.Duration
	MaxBodyBytes           int64
	CORSOrigins            []string
	PostgresDSN            string
	MigrationPath          string
	QueueMaxSize           int
	BatchMaxSize           int
	BatchMaxWait           time.Duration
	RateLimitMetricsPerMin int
	LogLevel               string
	LogFormat              string
}

// Addr is the listen address.
func (c Config) Addr() string { return c.Host + ":" + c.Port }

// ActivityEnabled reports whether the Postgres activity log is configured.
func (c Config) ActivityEnabled() bool { return c.PostgresDSN != "" }

func Default() Config {
	return Config{
		Host:                   "0.0.0.0",
		Port:                   "8000",
		PacingUnit:             time.Second,
		MaxBodyBytes:           1_048_576,
		CORSOrigins:            []string{"*"},
		MigrationPath:          "migrations/0001_init.sql",
		QueueMaxSize:           10_000,
		BatchMaxSize:           500,
		BatchMaxWait:           50 * time.Millisecond,
		RateLimitMetricsPerMin: 20,
		LogLevel:               "info",
		LogFormat:              "json",
	}
}

// fileConfig is the YAML shape. Zero values leave the default in place.
type fileConfig struct {
	Host                   string   `yaml:"host"`
	Port                   string   `yaml:"port"`
	PacingUnitMS           int      `yaml:"pacing_unit_ms"`
	MaxBodyBytes           int64    `yaml:"max_body_bytes"`
	CORSOrigins            []string `yaml:"cors_origins"`
	PostgresDSN            string   `yaml:"postgres_dsn"`
	MigrationPath          string   `yaml:"migration_path"`
	QueueMaxSize           int      `yaml:"queue_max_size"`
	BatchMaxSize           int      `yaml:"batch_max_size"`
	BatchMaxWaitMS         int      `yaml:"batch_max_wait_ms"`
	RateLimitMetricsPerMin int      `yaml:"rate_limit_metrics_per_min"`
	LogLevel               string   `yaml:"log_level"`
	LogFormat              string   `yaml:"log_format"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			fc.apply(&cfg)
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (fc fileConfig) apply(c *Config) {
	setString(&c.Host, fc.Host)
	setString(&c.Port, fc.Port)
	if fc.PacingUnitMS > 0 {
		c.PacingUnit = time.Duration(fc.PacingUnitMS) * time.Millisecond
	}
	if fc.MaxBodyBytes > 0 {
		c.MaxBodyBytes = fc.MaxBodyBytes
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	setString(&c.PostgresDSN, fc.PostgresDSN)
	setString(&c.MigrationPath, fc.MigrationPath)
	setInt(&c.QueueMaxSize, fc.QueueMaxSize)
	setInt(&c.BatchMaxSize, fc.BatchMaxSize)
	if fc.BatchMaxWaitMS > 0 {
		c.BatchMaxWait = time.Duration(fc.BatchMaxWaitMS) * time.Millisecond
	}
	setInt(&c.RateLimitMetricsPerMin, fc.RateLimitMetricsPerMin)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
}

func applyEnv(c *Config) {
	c.Host = getString("HOST", c.Host)
	c.Port = getString("PORT", c.Port)
	c.PacingUnit = time.Duration(getInt("PACING_UNIT_MS", int(c.PacingUnit/time.Millisecond))) * time.Millisecond
	c.MaxBodyBytes = int64(getInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	if v := getString("CORS_ORIGINS", ""); v != "" {
		c.CORSOrigins = parseList(v)
	}
	c.PostgresDSN = getString("POSTGRES_DSN", c.PostgresDSN)
	c.MigrationPath = getString("MIGRATION_PATH", c.MigrationPath)
	c.QueueMaxSize = getInt("QUEUE_MAX_SIZE", c.QueueMaxSize)
	c.BatchMaxSize = getInt("BATCH_MAX_SIZE", c.BatchMaxSize)
	c.BatchMaxWait = time.Duration(getInt("BATCH_MAX_WAIT_MS", int(c.BatchMaxWait/time.Millisecond))) * time.Millisecond
	c.RateLimitMetricsPerMin = getInt("RATE_LIMIT_METRICS_PER_MIN", c.RateLimitMetricsPerMin)
	c.LogLevel = getString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getString("LOG_FORMAT", c.LogFormat)
}

func parseList(csv string) []string {
	var out []string
	for _, k := range strings.Split(csv, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
