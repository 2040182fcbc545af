package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding flag
// defaults, e.g. MODELFETCH_RETRIES or MODELFETCH_LOG_LEVEL.
const EnvPrefix = "MODELFETCH"

// Mode selects what the CLI downloads.
type Mode int

const (
	// ModeDefault downloads the default checkpoint.
	ModeDefault Mode = iota
	// ModeAll downloads every entry of the manifest.
	ModeAll
	// ModeSingle downloads one URL to one destination.
	ModeSingle
)

// Config represents the CLI configuration.
type Config struct {
	All              bool          `mapstructure:"all"`
	URL              string        `mapstructure:"url"`
	Destination      string        `mapstructure:"destination"`
	Root             string        `mapstructure:"root"`
	Retries          int           `mapstructure:"retries"`
	Timeout          time.Duration `mapstructure:"timeout"`
	TransportRetries int           `mapstructure:"transport-retries"`
	Insecure         bool          `mapstructure:"insecure"`
	KeepPartial      bool          `mapstructure:"keep-partial"`
	LogLevel         string        `mapstructure:"log-level"`
	LogFormat        string        `mapstructure:"log-format"`
}

// NewFlagSet declares the CLI flags. root is the default for --root.
func NewFlagSet(root string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("modelfetch", pflag.ContinueOnError)
	fs.Bool("all", false, "Download every model of the manifest, skipping files already present")
	fs.String("url", "", "URL of a single file to download (requires --destination)")
	fs.String("destination", "", "Path where the file given with --url is saved")
	fs.String("root", root, "Directory containing the models/ tree")
	fs.Int("retries", 5, "Maximum number of download attempts per file")
	fs.Duration("timeout", 600*time.Second, "Connection and inactivity timeout of each attempt")
	fs.Int("transport-retries", 3, "Retries of a request on connection errors, per attempt")
	fs.Bool("insecure", false, "Disable TLS certificate verification")
	fs.Bool("keep-partial", false, "Keep truncated files left by failed attempts")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-format", "console", "Log format: console or json")
	return fs
}

// Load parses args and the MODELFETCH_* environment into a validated
// Config. Flags given explicitly win over environment variables, which win
// over flag defaults. pflag.ErrHelp is returned as is.
func Load(args []string, root string) (*Config, error) {
	fs := NewFlagSet(root)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.All && (c.URL != "" || c.Destination != "") {
		return errors.New("--all cannot be combined with --url or --destination")
	}
	if (c.URL == "") != (c.Destination == "") {
		return errors.New("--url and --destination must be given together")
	}
	if c.Root == "" {
		return errors.New("root is required")
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.TransportRetries < 0 {
		return fmt.Errorf("transport-retries must not be negative, got %d", c.TransportRetries)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log-level: %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "json", "console":
		// Valid formats
	default:
		return fmt.Errorf("invalid log-format: %s", c.LogFormat)
	}

	return nil
}

// Mode returns the download mode selected by the flags.
func (c *Config) Mode() Mode {
	switch {
	case c.All:
		return ModeAll
	case c.URL != "":
		return ModeSingle
	default:
		return ModeDefault
	}
}
