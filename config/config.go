package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/thisisjab/herdcomp/api"
	"github.com/thisisjab/herdcomp/engine"
	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/metrics"
	"github.com/thisisjab/herdcomp/storage"
	"go.yaml.in/yaml/v3"
)

// Environment variables that override the file.
const (
	EnvStorageDSN = "HERDCOMP_STORAGE_DSN"
	EnvAuthSecret = "HERDCOMP_AUTH_SECRET"
)

type Config struct {
	Logger   LoggerConfig    `yaml:"logger"`
	Storage  StorageConfig   `yaml:"storage"`
	API      api.Config      `yaml:"api"`
	Executor executor.Config `yaml:"executor"`
	Watch    engine.Settings `yaml:"watch"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type StorageConfig struct {
	Type         string        `yaml:"type"`
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// DSN replaces the dsn (postgres) or path (sqlite) of Config.
	DSN    string `yaml:"dsn"`
	Config any    `yaml:"config"`
}

// Components are the wired parts of the interpreter.
type Components struct {
	Storage  *storage.Storage
	Executor *executor.Executor
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Default is the configuration a file is decoded on top of.
func Default() Config {
	return Config{
		Logger:   LoggerConfig{Level: "info", Type: "text", Output: "stdout"},
		Storage:  StorageConfig{Type: "postgres"},
		API:      api.Config{Addr: "localhost:8000"},
		Executor: executor.DefaultConfig(),
		Watch:    engine.DefaultSettings(),
	}
}

// ApplyEnv overrides secrets with the environment, when set.
func (cfg *Config) ApplyEnv() {
	if dsn := os.Getenv(EnvStorageDSN); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if secret := os.Getenv(EnvAuthSecret); secret != "" {
		cfg.API.Auth.Secret = secret
	}
}

func (cfg Config) Parse() (*Components, *slog.Logger, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	if err := cfg.Executor.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid executor config: %w", err)
	}

	st, err := parseStorageConfig(logger, cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	exec := executor.New(st, logger,
		executor.WithConfig(cfg.Executor),
		executor.WithRecorder(m),
	)

	return &Components{
		Storage:  st,
		Executor: exec,
		Metrics:  m,
		Registry: reg,
	}, logger, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var logger *slog.Logger
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	logger = slog.New(handler)

	return logger, nil
}

func parseStorageConfig(logger *slog.Logger, cfg StorageConfig) (*storage.Storage, error) {
	opts := []storage.Option{
		storage.WithLogger(logger.With("storage", cfg.Type)),
		storage.WithQueryTimeout(cfg.QueryTimeout),
	}

	switch cfg.Type {
	case "postgres":
		var postgresConfig storage.PostgresStorageConfig

		if err := remarshal(cfg.Config, &postgresConfig); err != nil {
			return nil, fmt.Errorf("cannot parse postgres storage config: %w", err)
		}

		if cfg.DSN != "" {
			postgresConfig.DSN = cfg.DSN
		}

		s, err := storage.NewPostgresStorage(postgresConfig, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot create postgres storage: %w", err)
		}

		return s, nil

	case "sqlite":
		var sqliteConfig storage.SQLiteStorageConfig

		if err := remarshal(cfg.Config, &sqliteConfig); err != nil {
			return nil, fmt.Errorf("cannot parse sqlite storage config: %w", err)
		}

		if cfg.DSN != "" {
			sqliteConfig.Path = cfg.DSN
		}

		if sqliteConfig.Path == "" {
			return nil, fmt.Errorf("sqlite storage path is required")
		}

		s, err := storage.NewSQLiteStorage(sqliteConfig, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot create sqlite storage: %w", err)
		}

		return s, nil

	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
