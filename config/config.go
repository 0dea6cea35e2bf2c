// Package config loads the engine's recognized options (spec §6
// Configuration) from a file and the environment, the way evalgo-org-eve's
// cli/root.go initConfig loads its service configuration: a dedicated
// viper instance bound to a config file search path plus environment
// overrides, decoded into a typed struct rather than read key-by-key at
// call sites.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/kahefi/epcis-graph/errs"
	"github.com/kahefi/epcis-graph/materialize"
	"github.com/kahefi/epcis-graph/owl"
)

// ReasoningConfig controls the reasoner's default profile and inference
// budget.
type ReasoningConfig struct {
	DefaultProfile     string `mapstructure:"default_profile"`
	EnableInference    bool   `mapstructure:"enable_inference"`
	MaxInferenceTimeS  int    `mapstructure:"max_inference_time_s"`
}

// MaterializationConfig controls the materializer's strategy and cache.
type MaterializationConfig struct {
	Strategy       string `mapstructure:"strategy"`
	CacheSizeLimit int    `mapstructure:"cache_size_limit"`
	BatchSize      int    `mapstructure:"batch_size"`
	Parallel       bool   `mapstructure:"parallel"`
}

// SparqlConfig bounds query execution.
type SparqlConfig struct {
	MaxQueryTimeS int `mapstructure:"max_query_time_s"`
	MaxResults    int `mapstructure:"max_results"`
}

// Config is the engine's full recognized configuration surface (spec §6).
type Config struct {
	DatabasePath    string                `mapstructure:"database_path"`
	Reasoning       ReasoningConfig       `mapstructure:"reasoning"`
	Materialization MaterializationConfig `mapstructure:"materialization"`
	Sparql          SparqlConfig          `mapstructure:"sparql"`
}

// Defaults returns the configuration the spec mandates when a caller
// supplies no file and no environment overrides.
func Defaults() Config {
	return Config{
		DatabasePath: "./data",
		Reasoning: ReasoningConfig{
			DefaultProfile:    "el",
			EnableInference:   true,
			MaxInferenceTimeS: 30,
		},
		Materialization: MaterializationConfig{
			Strategy:       string(materialize.StrategyIncremental),
			CacheSizeLimit: 10000,
			BatchSize:      1000,
			Parallel:       true,
		},
		Sparql: SparqlConfig{
			MaxQueryTimeS: 60,
			MaxResults:    1000,
		},
	}
}

// Load reads configuration from configPath when it is non-empty, or
// otherwise from an epcis-graph.yaml file in the working directory, overlaying values with
// EPCIS_GRAPH_-prefixed environment variables, and falls back to Defaults()
// for anything left unset.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("epcis-graph")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("EPCIS_GRAPH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return Config{}, errs.Wrap(errs.KindStorageUnavailable, err, "read config file %q", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(errs.KindInternalError, err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("reasoning.default_profile", d.Reasoning.DefaultProfile)
	v.SetDefault("reasoning.enable_inference", d.Reasoning.EnableInference)
	v.SetDefault("reasoning.max_inference_time_s", d.Reasoning.MaxInferenceTimeS)
	v.SetDefault("materialization.strategy", d.Materialization.Strategy)
	v.SetDefault("materialization.cache_size_limit", d.Materialization.CacheSizeLimit)
	v.SetDefault("materialization.batch_size", d.Materialization.BatchSize)
	v.SetDefault("materialization.parallel", d.Materialization.Parallel)
	v.SetDefault("sparql.max_query_time_s", d.Sparql.MaxQueryTimeS)
	v.SetDefault("sparql.max_results", d.Sparql.MaxResults)
}

var validProfiles = map[string]owl.Profile{
	"el": owl.ProfileEL,
	"ql": owl.ProfileQL,
	"rl": owl.ProfileRL,
}

var validStrategies = map[string]bool{
	string(materialize.StrategyFull):        true,
	string(materialize.StrategyIncremental): true,
	string(materialize.StrategyOnDemand):    true,
	string(materialize.StrategyHybrid):      true,
}

// Validate checks every recognized option against its allowed domain.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return errs.New(errs.KindInternalError, "database_path must not be empty")
	}
	if _, ok := validProfiles[c.Reasoning.DefaultProfile]; !ok {
		return errs.New(errs.KindInternalError, "reasoning.default_profile %q is not one of el, ql, rl", c.Reasoning.DefaultProfile)
	}
	if c.Reasoning.MaxInferenceTimeS <= 0 {
		return errs.New(errs.KindInternalError, "reasoning.max_inference_time_s must be positive")
	}
	if !validStrategies[c.Materialization.Strategy] {
		return errs.New(errs.KindInternalError, "materialization.strategy %q is not one of Full, Incremental, OnDemand, Hybrid", c.Materialization.Strategy)
	}
	if c.Materialization.CacheSizeLimit <= 0 {
		return errs.New(errs.KindInternalError, "materialization.cache_size_limit must be positive")
	}
	if c.Materialization.BatchSize <= 0 {
		return errs.New(errs.KindInternalError, "materialization.batch_size must be positive")
	}
	if c.Sparql.MaxQueryTimeS <= 0 {
		return errs.New(errs.KindInternalError, "sparql.max_query_time_s must be positive")
	}
	if c.Sparql.MaxResults <= 0 {
		return errs.New(errs.KindInternalError, "sparql.max_results must be positive")
	}
	return nil
}

// Profile resolves the configured default reasoning profile.
func (c Config) Profile() owl.Profile {
	return validProfiles[c.Reasoning.DefaultProfile]
}

// String renders the configuration for diagnostic logging.
func (c Config) String() string {
	return fmt.Sprintf("database_path=%s profile=%s strategy=%s", c.DatabasePath, c.Reasoning.DefaultProfile, c.Materialization.Strategy)
}
