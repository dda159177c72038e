// Package config loads server settings from defaults, a TOML file,
// environment variables and flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"todo-api/internal/logger"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAddr            = ":8080"
	DefaultStore           = StoreMemory
	DefaultLogLevel        = "info"
	DefaultMetricsPath     = "/metrics"
	DefaultShutdownTimeout = 10
	DefaultConfigFile      = "todo-app.toml"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr  string `toml:"addr"`
	Store string `toml:"store"`

	LogLevel    string `toml:"log_level"`
	MetricsPath string `toml:"metrics_path"`

	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`

	// Telegram bot is started only when a token is set.
	BotToken string `toml:"bot_token"`
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func setDefaults(cfg *Config) {
	cfg.Addr = DefaultAddr
	cfg.Store = DefaultStore
	cfg.LogLevel = DefaultLogLevel
	cfg.MetricsPath = DefaultMetricsPath
	cfg.ShutdownTimeoutSeconds = DefaultShutdownTimeout
}

type flagValues struct {
	configFile      string
	addr            string
	store           string
	logLevel        string
	metricsPath     string
	shutdownTimeout int
}

// Load builds the config. Flags are registered on fs and parsed from args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var fv flagValues
	fs.StringVar(&fv.configFile, "config", "", "path to a TOML config file")
	fs.StringVar(&fv.addr, "addr", DefaultAddr, "HTTP listen address")
	fs.StringVar(&fv.store, "store", DefaultStore, "todo store: memory|sqlite")
	fs.StringVar(&fv.logLevel, "log-level", DefaultLogLevel, "log level: debug|info|error")
	fs.StringVar(&fv.metricsPath, "metrics-path", DefaultMetricsPath, "Prometheus metrics path, empty to disable")
	fs.IntVar(&fv.shutdownTimeout, "shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout in seconds")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	if path := configFilePath(fv.configFile); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	// only flags given on the command line override earlier sources
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = fv.addr
		case "store":
			cfg.Store = fv.store
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "metrics-path":
			cfg.MetricsPath = fv.metricsPath
		case "shutdown-timeout":
			cfg.ShutdownTimeoutSeconds = fv.shutdownTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFilePath picks the explicit path, then TODO_CONFIG, then the default
// file if it exists in the working directory.
func configFilePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("TODO_CONFIG"); v != "" {
		return v
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TODO_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TODO_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("TODO_METRICS_PATH"); ok {
		cfg.MetricsPath = v
	}
	if v := os.Getenv("TODO_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TODO_SHUTDOWN_TIMEOUT_SECONDS=%q is not an integer", ErrInvalidConfig, v)
		}
		cfg.ShutdownTimeoutSeconds = n
	}
	if v := os.Getenv("TODO_BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	return nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}

	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("%w: metrics path %q must start with /", ErrInvalidConfig, c.MetricsPath)
	}

	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}

	return nil
}
