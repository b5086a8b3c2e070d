// config.go - Configuration types, defaults and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dev-console/gridmat/internal/materialize"
	"github.com/dev-console/gridmat/internal/observability"
)

// Defaults for settings not owned by materialize.
const (
	DefaultBridgeURL      = "http://localhost:7890"
	DefaultDetectInterval = time.Second
	DefaultFormat         = "human"
	DefaultListen         = "localhost:7891"
	DefaultLogLevel       = "info"
	DefaultNameCell       = "solution-component-name"
	DefaultRefreshPattern = "api/data/v9.2/powerpagecomponents"
)

// Formats accepted by output.format.
var Formats = []string{"human", "json", "csv", "yaml"}

// Config holds all resolved configuration values.
type Config struct {
	Bridge      BridgeConfig      `mapstructure:"bridge"`
	Materialize MaterializeConfig `mapstructure:"materialize"`
	Refresh     RefreshConfig     `mapstructure:"refresh"`
	Server      ServerConfig      `mapstructure:"server"`
	Dataverse   DataverseConfig   `mapstructure:"dataverse"`
	Output      OutputConfig      `mapstructure:"output"`
	Log         LogConfig         `mapstructure:"log"`
}

// BridgeConfig locates the extension bridge.
type BridgeConfig struct {
	URL           string        `mapstructure:"url"`
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
}

// MaterializeConfig mirrors materialize.Options plus the detection poll.
type MaterializeConfig struct {
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	DeferDelay        time.Duration `mapstructure:"defer_delay"`
	RestartDelay      time.Duration `mapstructure:"restart_delay"`
	GapScrollBack     float64       `mapstructure:"gap_scroll_back"`
	RowsPerStep       int           `mapstructure:"rows_per_step"`
	FallbackRowHeight float64       `mapstructure:"fallback_row_height"`
	MaxGapRetries     int           `mapstructure:"max_gap_retries"`
	MaxDeferrals      int           `mapstructure:"max_deferrals"`
	MaxDuration       time.Duration `mapstructure:"max_duration"`
	OnExhausted       string        `mapstructure:"on_exhausted"`
	DetectInterval    time.Duration `mapstructure:"detect_interval"`
}

// RefreshConfig configures dataset refresh detection.
type RefreshConfig struct {
	Pattern string `mapstructure:"pattern"`
}

// ServerConfig configures the watch-mode listeners. Empty disables.
type ServerConfig struct {
	Listen      string `mapstructure:"listen"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// DataverseConfig configures managed-item filtering. InstanceURL and Token
// are normally captured from page traffic; set them to filter without
// watch mode.
type DataverseConfig struct {
	FilterManaged bool   `mapstructure:"filter_managed"`
	SolutionURL   string `mapstructure:"solution_url"`
	NameCell      string `mapstructure:"name_cell"`
	InstanceURL   string `mapstructure:"instance_url"`
	Token         string `mapstructure:"token"`
}

// OutputConfig selects the result format.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	JSON    bool   `mapstructure:"json"`
	Tracing bool   `mapstructure:"tracing"`
}

// Validate checks ranges and enums.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Bridge.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("bridge.url must be an absolute URL, got %q", c.Bridge.URL))
	}
	if c.Bridge.ScriptTimeout < 0 {
		errs = append(errs, fmt.Errorf("bridge.script_timeout must not be negative"))
	}
	if c.Materialize.DetectInterval <= 0 {
		errs = append(errs, fmt.Errorf("materialize.detect_interval must be positive, got %s", c.Materialize.DetectInterval))
	}
	if c.Materialize.RowsPerStep < 0 {
		errs = append(errs, fmt.Errorf("materialize.rows_per_step must not be negative"))
	}
	if err := c.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("materialize: %w", err))
	}
	if !validFormat(c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of %v, got %q", Formats, c.Output.Format))
	}
	if _, err := observability.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts the materialize section.
func (c *Config) Options() materialize.Options {
	m := c.Materialize
	return materialize.Options{
		SettleDelay:       m.SettleDelay,
		RetryDelay:        m.RetryDelay,
		DeferDelay:        m.DeferDelay,
		RestartDelay:      m.RestartDelay,
		GapScrollBack:     m.GapScrollBack,
		RowsPerStep:       m.RowsPerStep,
		FallbackRowHeight: m.FallbackRowHeight,
		MaxGapRetries:     m.MaxGapRetries,
		MaxDeferrals:      m.MaxDeferrals,
		MaxDuration:       m.MaxDuration,
		OnExhausted:       materialize.ExhaustionPolicy(m.OnExhausted),
	}
}

// Observability converts the log section for mode.
func (c *Config) Observability(mode, version string) observability.Config {
	lvl, _ := observability.ParseLevel(c.Log.Level)
	return observability.Config{
		ServiceVersion: version,
		Mode:           mode,
		LogLevel:       lvl,
		LogJSON:        c.Log.JSON,
		Tracing:        c.Log.Tracing,
	}
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}
