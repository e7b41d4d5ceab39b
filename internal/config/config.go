// Package config loads and validates the ambient (non-topology)
// settings of a simulation run: logging, telemetry, and the
// diagnostic cycle bound used to catch a deadlocked scenario (spec
// §4.3, R2). Node topology, routing tables, homed pages and programs
// are the job of internal/scenario, not this package.
//
// Grounded on the teacher's internal/config/config.go: same
// yaml.v3-backed struct shape, ApplyEnvOverrides/ValidateConfig/
// LogConfig trio.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"nocsim/internal/logger"
)

// TracingConfig controls whether per-hop OpenTelemetry spans are
// emitted in addition to the mandated plain-text trace.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // only "stdout" is supported (see DESIGN.md)
}

// TelemetryConfig is the top-level telemetry section.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// FileLoggerConfig configures lumberjack-based log rotation when
// Logger.Mode is "file".
type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// LoggerConfig is the top-level logging section.
type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// SimulationConfig bounds how long a run is allowed to execute before
// it is treated as deadlocked (spec §4.3 leaves termination detection
// to "the test harness"; SPEC_FULL §2 makes it a config knob here).
// MaxCycles <= 0 means unbounded.
type SimulationConfig struct {
	MaxCycles int `yaml:"maxCycles"`
}

// Config is the full ambient configuration of a nocsim run.
type Config struct {
	Logger     LoggerConfig     `yaml:"logger"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// LoadConfig reads and parses the YAML file at path. It performs only
// syntactic parsing; call ValidateConfig afterward to check for
// missing or invalid fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration.
//
// Supported overrides:
//
//	LOGGER_ENABLED   -> cfg.Logger.Active
//	LOGGER_LEVEL     -> cfg.Logger.Level
//	LOGGER_ENCODING  -> cfg.Logger.Encoding
//	LOGGER_MODE      -> cfg.Logger.Mode
//	LOGGER_FILE_PATH -> cfg.Logger.File.Path
//	TRACE_ENABLED    -> cfg.Telemetry.Tracing.Enabled
//	TRACE_EXPORTER   -> cfg.Telemetry.Tracing.Exporter
//	SIM_MAX_CYCLES   -> cfg.Simulation.MaxCycles
func (cfg *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOGGER_ENABLED"); v != "" {
		cfg.Logger.Active = parseBool(v)
	}
	if v := os.Getenv("LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOGGER_ENCODING"); v != "" {
		cfg.Logger.Encoding = v
	}
	if v := os.Getenv("LOGGER_MODE"); v != "" {
		cfg.Logger.Mode = v
	}
	if v := os.Getenv("LOGGER_FILE_PATH"); v != "" {
		cfg.Logger.File.Path = v
	}
	if v := os.Getenv("TRACE_ENABLED"); v != "" {
		cfg.Telemetry.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.Tracing.Exporter = v
	}
	if v := os.Getenv("SIM_MAX_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.MaxCycles = n
		}
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// ValidateConfig performs structural validation of the loaded
// configuration. All detected issues are accumulated and returned as
// a single error.
func (cfg *Config) ValidateConfig() error {
	var errs []string

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.encoding: %s", cfg.Logger.Encoding))
	}
	switch cfg.Logger.Mode {
	case "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
		if cfg.Logger.File.MaxSize < 0 || cfg.Logger.File.MaxBackups < 0 || cfg.Logger.File.MaxAge < 0 {
			errs = append(errs, "logger.file.* values must be non-negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Telemetry.Tracing.Enabled {
		switch cfg.Telemetry.Tracing.Exporter {
		case "stdout":
		default:
			errs = append(errs, fmt.Sprintf("invalid telemetry.tracing.exporter: %s (only stdout is supported)", cfg.Telemetry.Tracing.Exporter))
		}
	}

	if cfg.Simulation.MaxCycles < 0 {
		errs = append(errs, "simulation.maxCycles must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig prints the loaded configuration at DEBUG level.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	lgr.Debug("loaded configuration",
		logger.F("logger.active", cfg.Logger.Active),
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("logger.encoding", cfg.Logger.Encoding),
		logger.F("logger.mode", cfg.Logger.Mode),
		logger.F("logger.file.path", cfg.Logger.File.Path),
		logger.F("logger.file.maxSizeMB", cfg.Logger.File.MaxSize),
		logger.F("logger.file.maxBackups", cfg.Logger.File.MaxBackups),
		logger.F("logger.file.maxAgeDays", cfg.Logger.File.MaxAge),
		logger.F("logger.file.compress", cfg.Logger.File.Compress),

		logger.F("telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled),
		logger.F("telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter),

		logger.F("simulation.maxCycles", cfg.Simulation.MaxCycles),
	)
}
