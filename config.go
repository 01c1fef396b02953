package foundry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/TheBitDrifter/table"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of one simulation instance. Lockstep peers must share TickRateHz and
// StrictTime.
type Config struct {
	TickRateHz int    `yaml:"tick_rate_hz"`
	StrictTime bool   `yaml:"strict_time"`
	LogLevel   string `yaml:"log_level"`

	// Logger receives every log line of the instance. Nil discards.
	Logger *slog.Logger `yaml:"-"`
	// TableEvents is passed to every archetype table the registry builds.
	TableEvents table.TableEvents `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		TickRateHz: 60,
		LogLevel:   "info",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(raw)
}

func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", c.TickRateHz)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// TickInterval is the quantized length of one tick.
func (c Config) TickInterval() float64 {
	return Quantize(1 / float64(c.TickRateHz))
}

// NewLogger builds a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
