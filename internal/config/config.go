package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Config is the goktmcan-decode configuration file.
type Config struct {
	Decoder DecoderConfig `toml:"decoder"`
	Source  SourceConfig  `toml:"source"`
	Output  OutputConfig  `toml:"output"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

type DecoderConfig struct {
	EmitUnmapped     bool `toml:"emit_unmapped"`
	EnableAssertions bool `toml:"enable_assertions"`
	StopOnError      bool `toml:"stop_on_error"`
}

type SourceConfig struct {
	Interface string `toml:"interface"`
	File      string `toml:"file"`
	RequireUp bool   `toml:"require_up"`
	// KernelFilter installs SocketCAN filters for the identifiers in
	// output.only so unwanted frames never reach user space.
	KernelFilter bool `toml:"kernel_filter"`
}

type OutputConfig struct {
	Format string   `toml:"format"`
	Only   []string `toml:"only"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig enables the Prometheus endpoint while streaming.
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: FormatText},
		Log:    LogConfig{Level: "info", Format: FormatText},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values and mutually exclusive settings.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Source.Interface) != "" && strings.TrimSpace(cfg.Source.File) != "" {
		return fmt.Errorf("source.interface and source.file are mutually exclusive")
	}
	switch cfg.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatText, FormatJSON, cfg.Output.Format)
	}
	switch cfg.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", FormatText, FormatJSON, cfg.Log.Format)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}
	return nil
}

// ConfigureLogger applies the log section to logger.
func (c LogConfig) ConfigureLogger(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if c.Format == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
