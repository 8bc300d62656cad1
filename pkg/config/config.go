package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/scheduler"
)

// Affinity source kinds
const (
	SourceFile = "file"
	SourceBolt = "bolt"
)

// Config is the scheduler configuration file
type Config struct {
	Affinity         AffinityConfig `yaml:"affinity"`
	DataDir          string         `yaml:"dataDir"`
	SystemGroupID    int            `yaml:"systemGroupID"`
	SystemPrefix     string         `yaml:"systemPrefix"`
	Strategy         string         `yaml:"strategy"`
	Interval         time.Duration  `yaml:"interval"`
	HistoryRetention int            `yaml:"historyRetention"`
	Log              LogConfig      `yaml:"log"`
	API              APIConfig      `yaml:"api"`
}

// AffinityConfig selects where the affinity table is read from
type AffinityConfig struct {
	Source string `yaml:"source"` // file or bolt
	Path   string `yaml:"path"`   // table file when Source is file
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// APIConfig holds listen addresses; an empty address disables the listener
type APIConfig struct {
	HTTPAddr string `yaml:"httpAddr"`
	GRPCAddr string `yaml:"grpcAddr"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Affinity: AffinityConfig{
			Source: SourceFile,
			Path:   affinity.DefaultPath,
		},
		DataDir:          "./groupsched-data",
		SystemGroupID:    scheduler.DefaultSystemGroupID,
		SystemPrefix:     scheduler.DefaultSystemPrefix,
		Strategy:         scheduler.StrategySingleSlot,
		Interval:         scheduler.DefaultInterval,
		HistoryRetention: scheduler.DefaultHistoryRetention,
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
		API: APIConfig{
			HTTPAddr: "127.0.0.1:9090",
			GRPCAddr: "127.0.0.1:9091",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the scheduler cannot use
func (c *Config) Validate() error {
	var errs []error

	switch c.Affinity.Source {
	case SourceFile:
		if c.Affinity.Path == "" {
			errs = append(errs, errors.New("affinity.path is required for the file source"))
		}
	case SourceBolt:
		if c.DataDir == "" {
			errs = append(errs, errors.New("dataDir is required for the bolt source"))
		}
	default:
		errs = append(errs, fmt.Errorf("affinity.source must be %q or %q, got %q", SourceFile, SourceBolt, c.Affinity.Source))
	}

	if c.SystemPrefix == "" {
		errs = append(errs, errors.New("systemPrefix must not be empty"))
	}
	if _, err := scheduler.StrategyByName(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.HistoryRetention < 0 {
		errs = append(errs, fmt.Errorf("historyRetention must not be negative, got %d", c.HistoryRetention))
	}

	switch log.Level(c.Log.Level) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoggerConfig returns the logger settings for log.Init
func (c *Config) LoggerConfig() log.Config {
	return log.Config{
		Level:      log.Level(c.Log.Level),
		JSONOutput: c.Log.JSON,
	}
}

// SchedulerOptions translates the configuration into scheduler options
func (c *Config) SchedulerOptions() ([]scheduler.Option, error) {
	strategy, err := scheduler.StrategyByName(c.Strategy)
	if err != nil {
		return nil, err
	}
	return []scheduler.Option{
		scheduler.WithSystemGroupID(c.SystemGroupID),
		scheduler.WithSystemPrefix(c.SystemPrefix),
		scheduler.WithStrategy(strategy),
		scheduler.WithInterval(c.Interval),
	}, nil
}
