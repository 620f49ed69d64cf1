// Package config loads process configuration for the index builders and
// the scorer CLI: YAML file plus environment overrides, using a
// viper/godotenv layering idiom (file, then PWAYRANK_-prefixed env vars).
//
// Grounded on a reference internal/config/config.go shape
// (Default/Load/Save, env-file precedence via loadEnvFiles,
// env-prefixed overrides), retargeted from a {Storage, GitHub, API, Risk,
// Sync, Budget} domain to this one's {Cache, Mapping, RateLimit, Weights, Log}.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process-wide settings for the index builders and the
// scorer CLI.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Mapping   MappingConfig   `yaml:"mapping"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Weights   WeightsConfig   `yaml:"weights"`
	Log       LogConfig       `yaml:"log"`
}

// CacheConfig configures the fetch cache directory layout.
type CacheConfig struct {
	Root         string `yaml:"root"`          // cache root; list/, raw/, parsed/ live beneath it
	ManifestPath string `yaml:"manifest_path"` // sqlite manifest DB path; empty disables it
}

// MappingConfig names the default organism identifier-mapping table.
type MappingConfig struct {
	DefaultPath string `yaml:"default_path"`
}

// RateLimitConfig configures the fetch cache's outbound request pacing.
type RateLimitConfig struct {
	Interval   time.Duration `yaml:"interval"`    // minimum spacing between requests, default 0.25s
	Burst      int           `yaml:"burst"`        // token bucket burst size
	MaxRetries int           `yaml:"max_retries"`  // default 5
}

// WeightsConfig carries the evidence aggregator and ranker's default,
// fully-overridable weights.
type WeightsConfig struct {
	SigScale       float64 `yaml:"sig_scale" json:"sig_scale"`
	EffScale       float64 `yaml:"eff_scale" json:"eff_scale"`
	WAnn           float64 `yaml:"w_ann" json:"w_ann"`
	PTMSiteScale   float64 `yaml:"ptm_site_scale" json:"ptm_site_scale"`
	PTMWeight      float64 `yaml:"ptm_weight" json:"ptm_weight"`
	Epsilon        float64 `yaml:"epsilon" json:"epsilon"`
	RegGate        float64 `yaml:"reg_gate" json:"reg_gate"`
	TwoHopBase     float64 `yaml:"two_hop_base" json:"two_hop_base"`
	Conn2Weight    float64 `yaml:"conn2_weight" json:"conn2_weight"`
	Alpha          float64 `yaml:"alpha" json:"alpha"`
	NodeMassWeight float64 `yaml:"node_mass_weight" json:"node_mass_weight"`
	NodeMassTopK   int     `yaml:"node_mass_top_k" json:"node_mass_top_k"`
	SiteTopK       int     `yaml:"site_top_k" json:"site_top_k"`
	TopEdgesN      int     `yaml:"top_edges_n" json:"top_edges_n"`
	LocprobMin     float64 `yaml:"locprob_min" json:"locprob_min"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	OutputFile string `yaml:"output_file"`
	JSONFormat bool   `yaml:"json_format"`
}

// Default returns the process's built-in configuration: the cache rooted
// under the user's home directory and the scorer's default weight table.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Cache: CacheConfig{
			Root:         filepath.Join(homeDir, ".pwayrank", "cache"),
			ManifestPath: filepath.Join(homeDir, ".pwayrank", "cache", "manifest.db"),
		},
		Mapping: MappingConfig{},
		RateLimit: RateLimitConfig{
			Interval:   250 * time.Millisecond,
			Burst:      1,
			MaxRetries: 5,
		},
		Weights: WeightsConfig{
			SigScale:       5.0,
			EffScale:       2.0,
			WAnn:           1.0,
			PTMSiteScale:   0.3,
			PTMWeight:      1.0,
			Epsilon:        0.2,
			RegGate:        0.15,
			TwoHopBase:     0.7,
			Conn2Weight:    1.0,
			Alpha:          0.5,
			NodeMassWeight: 0.2,
			NodeMassTopK:   10,
			SiteTopK:       2,
			TopEdgesN:      10,
			LocprobMin:     0.75,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (or the standard search locations if
// path is empty), layering defaults, file contents, and
// PWAYRANK_-prefixed environment overrides (highest precedence).
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("mapping", cfg.Mapping)
	v.SetDefault("rate_limit", cfg.RateLimit)
	v.SetDefault("weights", cfg.Weights)
	v.SetDefault("log", cfg.Log)

	v.SetEnvPrefix("PWAYRANK")
	v.AutomaticEnv()

	explicitMissing := false
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			explicitMissing = true
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".pwayrank")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".pwayrank"))
	}

	if !explicitMissing {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence: local overrides
// first, then the main file, then an example fallback.
func loadEnvFiles() {
	envFiles := []string{".env.local", ".env", ".env.example"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err == nil {
				continue
			}
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".pwayrank", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// Save writes c to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("cache", c.Cache)
	v.Set("mapping", c.Mapping)
	v.Set("rate_limit", c.RateLimit)
	v.Set("weights", c.Weights)
	v.Set("log", c.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
