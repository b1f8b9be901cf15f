// Package logger builds the slog loggers used across the system and the
// attribute constructors that keep field names consistent.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LogConfiguration struct {
	// Level is the minimum level to log: debug, info, warn or error.
	Level string `yaml:"defaultLevel"`
	// Format selects the handler: "text" or "json".
	Format string `yaml:"format"`
	// OutputPath is "stdout", "stderr" or a file path (append mode).
	OutputPath string `yaml:"outputPath"`
	// TimeFormat is a Go time layout for the time attribute, or "none"
	// to drop it (useful under journald etc which timestamp anyway).
	TimeFormat string `yaml:"timeFormat"`
}

func (c *LogConfiguration) initDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.OutputPath == "" {
		c.OutputPath = "stderr"
	}
}

// LoadConfiguration reads a logger configuration YAML file.
func LoadConfiguration(path string) (*LogConfiguration, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening logger configuration file: %w", err)
	}
	defer f.Close()

	cfg := &LogConfiguration{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding logger configuration (%s): %w", path, err)
	}
	return cfg, nil
}

// New creates a logger based on the configuration; a nil cfg gives the
// defaults (info level text output to stderr).
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &LogConfiguration{}
	}
	cfg.initDefaults()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	out, err := output(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: formatTimeAttr(cfg.TimeFormat),
	}

	switch cfg.Format {
	case "text":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func output(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log output file: %w", err)
		}
		return f, nil
	}
}

/*
formatTimeAttr returns a ReplaceAttr callback which formats the built-in
time attribute according to "format". Empty format returns nil, ie the
handler's default rendering is kept; "none" drops the attribute.
Zero time values are not altered.
*/
func formatTimeAttr(format string) func(groups []string, a slog.Attr) slog.Attr {
	switch format {
	case "":
		return nil
	case "none":
		return func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	default:
		return func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t := a.Value.Time(); !t.IsZero() {
					return slog.String(slog.TimeKey, t.Format(format))
				}
			}
			return a
		}
	}
}
