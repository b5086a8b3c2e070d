// loader.go - viper-backed configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dev-console/gridmat/internal/materialize"
)

const (
	configName      = ".gridmat"
	configType      = "yaml"
	envPrefix       = "GRIDMAT"
	envKeySeparator = "_"
)

// FlagKeys maps command-line flag names to config keys. Flags not present in
// the FlagSet passed to Load are ignored.
var FlagKeys = map[string]string{
	"bridge-url":      "bridge.url",
	"script-timeout":  "bridge.script_timeout",
	"format":          "output.format",
	"listen":          "server.listen",
	"refresh-pattern": "refresh.pattern",
	"metrics-addr":    "server.metrics_addr",
	"filter-managed":  "dataverse.filter_managed",
	"solution-url":    "dataverse.solution_url",
	"instance-url":    "dataverse.instance_url",
	"log-level":       "log.level",
	"log-json":        "log.json",
	"settle-delay":    "materialize.settle_delay",
	"step-rows":       "materialize.rows_per_step",
	"max-duration":    "materialize.max_duration",
	"on-exhausted":    "materialize.on_exhausted",
}

// Load resolves configuration. configPath selects an explicit file; empty
// searches CWD and $HOME for .gridmat.yaml. A missing file is not an error.
// flags may be nil; only flags the user changed override lower layers.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("bridge.url", DefaultBridgeURL)
	v.SetDefault("bridge.script_timeout", "10s")

	v.SetDefault("materialize.settle_delay", materialize.DefaultSettleDelay)
	v.SetDefault("materialize.retry_delay", materialize.DefaultRetryDelay)
	v.SetDefault("materialize.defer_delay", materialize.DefaultDeferDelay)
	v.SetDefault("materialize.restart_delay", materialize.DefaultRestartDelay)
	v.SetDefault("materialize.gap_scroll_back", materialize.DefaultGapScrollBack)
	v.SetDefault("materialize.rows_per_step", materialize.DefaultRowsPerStep)
	v.SetDefault("materialize.fallback_row_height", materialize.DefaultFallbackRowHeight)
	v.SetDefault("materialize.max_gap_retries", materialize.DefaultMaxGapRetries)
	v.SetDefault("materialize.max_deferrals", materialize.DefaultMaxDeferrals)
	v.SetDefault("materialize.max_duration", 0)
	v.SetDefault("materialize.on_exhausted", string(materialize.ExhaustPartial))
	v.SetDefault("materialize.detect_interval", DefaultDetectInterval)

	v.SetDefault("refresh.pattern", DefaultRefreshPattern)

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.metrics_addr", "")

	v.SetDefault("dataverse.filter_managed", false)
	v.SetDefault("dataverse.solution_url", "")
	v.SetDefault("dataverse.name_cell", DefaultNameCell)
	v.SetDefault("dataverse.instance_url", "")
	v.SetDefault("dataverse.token", "")

	v.SetDefault("output.format", DefaultFormat)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)
	v.SetDefault("log.tracing", false)
}
