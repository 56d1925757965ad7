// Package config loads and validates gitsong configuration from file,
// environment and defaults. The loaded Config is immutable for the run and
// threaded as a parameter; there is no ambient global state.
package config

import (
	"errors"
	"time"

	"github.com/Sumatoshi-tech/gitsong/pkg/counter"
)

// Config is the top-level configuration struct for gitsong.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AnalysisConfig holds the walk and counting settings.
type AnalysisConfig struct {
	// Branch is the requested branch name; resolution may fall back past it.
	Branch string `mapstructure:"branch"`

	// CounterTool selects the counting backend ("scc" or "cloc").
	CounterTool string `mapstructure:"counter_tool"`

	// Output is the path of the persisted session artifact.
	Output string `mapstructure:"output"`

	// CounterTimeout bounds a single counting invocation (e.g. "120s").
	CounterTimeout string `mapstructure:"counter_timeout"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
	Environment    string `mapstructure:"environment"`
	LogJSON        bool   `mapstructure:"log_json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidCounterTool indicates an unsupported counter tool name.
	ErrInvalidCounterTool = errors.New("analysis.counter_tool must be \"scc\" or \"cloc\"")
	// ErrInvalidCounterTimeout indicates an unparseable or non-positive timeout.
	ErrInvalidCounterTimeout = errors.New("analysis.counter_timeout must be a positive duration")
	// ErrEmptyOutput indicates a missing output path.
	ErrEmptyOutput = errors.New("analysis.output must not be empty")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Analysis.CounterTool != counter.ToolScc && c.Analysis.CounterTool != counter.ToolCloc {
		return ErrInvalidCounterTool
	}

	if c.Analysis.Output == "" {
		return ErrEmptyOutput
	}

	_, err := c.CounterTimeout()
	if err != nil {
		return err
	}

	return nil
}

// CounterTimeout parses the configured counter timeout.
func (c *Config) CounterTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Analysis.CounterTimeout)
	if err != nil || d <= 0 {
		return 0, ErrInvalidCounterTimeout
	}

	return d, nil
}
