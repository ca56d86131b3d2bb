// Package config loads efdcrun.yaml and applies EFDCRUN_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is named.
const DefaultFile = "efdcrun.yaml"

// Config holds all efdcrun settings.
type Config struct {
	// SourceRoot is the prepared simulation directory runs are staged from.
	SourceRoot string `yaml:"source_root"`
	// WorkRoot receives one staged directory per run; empty means the system
	// temp directory.
	WorkRoot string `yaml:"work_root"`
	// Executable is a glob, relative to SourceRoot, matching the model binary.
	Executable string `yaml:"executable"`
	// SharedFiles are linked read-only into every run directory. Empty means
	// every source entry the workspace does not rewrite.
	SharedFiles []string `yaml:"shared_files"`
	// KeepRuns leaves staged directories on disk after a run.
	KeepRuns bool `yaml:"keep_runs"`

	Pool     PoolConfig     `yaml:"pool"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PoolConfig sizes the batch worker pool.
type PoolConfig struct {
	Size     int    `yaml:"size"`
	Attempts int    `yaml:"attempts"`
	Timeout  string `yaml:"timeout"` // per attempt, Go duration syntax; empty for none
}

// ArtifactConfig selects where run artifacts are archived.
type ArtifactConfig struct {
	Driver string   `yaml:"driver"` // fs, s3, memory or none
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// LedgerConfig selects the run ledger backend.
type LedgerConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres or none
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type MetricsConfig struct {
	ExpvarName string `yaml:"expvar_name"`
	// PrometheusFile receives the Prometheus text exposition of the
	// process's metrics on exit, for node_exporter's textfile collector.
	PrometheusFile string `yaml:"prometheus_file"`
	TracePath      string `yaml:"trace_path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Executable: "*.exe",
		Pool: PoolConfig{
			Size:     defaultPoolSize(),
			Attempts: 3,
		},
		Artifact: ArtifactConfig{Driver: "none", FSRoot: "artifacts"},
		Ledger:   LedgerConfig{Driver: "sqlite", Path: "efdcrun.db"},
		Log:      LogConfig{Level: "info"},
	}
}

// defaultPoolSize assumes two hardware threads per core.
func defaultPoolSize() int {
	return max(runtime.NumCPU()/2, 1)
}

// Load reads path, falling back to defaults when the file does not exist,
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyDefaults fills fields a file may have zeroed.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Executable == "" {
		c.Executable = d.Executable
	}
	if c.Pool.Size <= 0 {
		c.Pool.Size = d.Pool.Size
	}
	if c.Pool.Attempts <= 0 {
		c.Pool.Attempts = d.Pool.Attempts
	}
	if c.Artifact.Driver == "" {
		c.Artifact.Driver = d.Artifact.Driver
	}
	if c.Artifact.FSRoot == "" {
		c.Artifact.FSRoot = d.Artifact.FSRoot
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = d.Ledger.Driver
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = d.Ledger.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks driver names and required fields.
func (c *Config) Validate() error {
	switch c.Artifact.Driver {
	case "fs", "memory", "none":
	case "s3":
		if c.Artifact.S3.Bucket == "" {
			return errors.New("config: artifact.s3.bucket required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown artifact driver %q", c.Artifact.Driver)
	}
	switch c.Ledger.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Ledger.DSN == "" {
			return errors.New("config: ledger.dsn required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown ledger driver %q", c.Ledger.Driver)
	}
	if _, err := c.PoolTimeout(); err != nil {
		return err
	}
	return nil
}

// PoolTimeout parses Pool.Timeout. Zero means no per-attempt limit.
func (c *Config) PoolTimeout() (time.Duration, error) {
	if c.Pool.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Pool.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: pool.timeout: %w", err)
	}
	return d, nil
}

// Environment variables:
//
//	EFDCRUN_SOURCE_ROOT, EFDCRUN_WORK_ROOT, EFDCRUN_EXECUTABLE
//	EFDCRUN_SHARED_FILES (comma separated), EFDCRUN_KEEP_RUNS
//	EFDCRUN_POOL_SIZE, EFDCRUN_POOL_ATTEMPTS, EFDCRUN_POOL_TIMEOUT
//	EFDCRUN_ARTIFACT_DRIVER, EFDCRUN_ARTIFACT_FS_ROOT
//	EFDCRUN_ARTIFACT_S3_BUCKET, _PREFIX, _REGION, _ENDPOINT, _PATH_STYLE
//	EFDCRUN_LEDGER_DRIVER, EFDCRUN_LEDGER_PATH, EFDCRUN_LEDGER_DSN
//	EFDCRUN_LOG_LEVEL, EFDCRUN_TRACE_PATH, EFDCRUN_PROMETHEUS_FILE
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("EFDCRUN_" + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup("EFDCRUN_" + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: EFDCRUN_%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup("EFDCRUN_" + key); ok && v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	str("SOURCE_ROOT", &c.SourceRoot)
	str("WORK_ROOT", &c.WorkRoot)
	str("EXECUTABLE", &c.Executable)
	if v, ok := lookup("EFDCRUN_SHARED_FILES"); ok && v != "" {
		c.SharedFiles = strings.Split(v, ",")
	}
	flag("KEEP_RUNS", &c.KeepRuns)
	if err := num("POOL_SIZE", &c.Pool.Size); err != nil {
		return err
	}
	if err := num("POOL_ATTEMPTS", &c.Pool.Attempts); err != nil {
		return err
	}
	str("POOL_TIMEOUT", &c.Pool.Timeout)
	str("ARTIFACT_DRIVER", &c.Artifact.Driver)
	str("ARTIFACT_FS_ROOT", &c.Artifact.FSRoot)
	str("ARTIFACT_S3_BUCKET", &c.Artifact.S3.Bucket)
	str("ARTIFACT_S3_PREFIX", &c.Artifact.S3.Prefix)
	str("ARTIFACT_S3_REGION", &c.Artifact.S3.Region)
	str("ARTIFACT_S3_ENDPOINT", &c.Artifact.S3.Endpoint)
	flag("ARTIFACT_S3_PATH_STYLE", &c.Artifact.S3.PathStyle)
	str("LEDGER_DRIVER", &c.Ledger.Driver)
	str("LEDGER_PATH", &c.Ledger.Path)
	str("LEDGER_DSN", &c.Ledger.DSN)
	str("LOG_LEVEL", &c.Log.Level)
	str("TRACE_PATH", &c.Metrics.TracePath)
	str("PROMETHEUS_FILE", &c.Metrics.PrometheusFile)
	return nil
}
