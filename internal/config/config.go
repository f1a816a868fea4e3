// Package config loads and validates the quorum configuration surface:
// strictness level, enabled focus areas, per-area analyzer weights,
// learning/coaching toggles, concurrency limits, and the provider and VCS
// blocks consumed by the narrow external clients.
//
// Configuration is resolved through viper from, in increasing precedence:
// built-in defaults, $HOME/.config/quorum/config.yml, QUORUM_* environment
// variables, and command-line flags bound by the cmd layer.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/sanix-darker/quorum/internal/review"
)

const (
	// ConfigDirName is the directory under $HOME holding the config file.
	ConfigDirName = ".config/quorum"
	// ConfigFileName is the YAML config file name.
	ConfigFileName = "config.yml"

	// DefaultConcurrency is the analyzer pool size when unset.
	DefaultConcurrency = 3
	// DefaultMaxRetries is the per-analyzer retry cap when unset.
	DefaultMaxRetries = 2

	minWeight = 0.0
	maxWeight = 2.0
)

// ConfigurationError is the only fatal error class in the engine: an invalid
// strictness level, an out-of-range weight, or a required analyzer missing
// from the active set. It is raised before any analyzer runs and never
// retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Config is the typed configuration consumed by the review pipeline.
type Config struct {
	Strictness      review.Strictness
	FocusAreas      []string
	Weights         map[string]float64
	LearningMode    bool
	CoachingEnabled bool
	Concurrency     int
	MaxRetries      int
	Debug           bool

	// Provider selects the AI backend. Its scoped settings (api key, model,
	// timeout) stay inside Viper and are read by the provider factories.
	Provider string

	// VCS block for the reporting collaborator.
	VCSPlatform string
	VCSToken    string
	VCSBaseURL  string
	VCSRepo     string

	// LintCommand is the external lint invocation whose output is passed
	// through synthesis untouched. Empty disables the lint step.
	LintCommand string

	// Project block feeding the prioritizer and prompt building.
	ProjectName   string
	CriticalPaths []string

	// Viper is the backing store, kept for provider-scoped lookups.
	Viper *viper.Viper

	// Writers are injected so command output stays testable.
	OutWriter io.Writer
	ErrWriter io.Writer
}

// defaultWeights gives every built-in focus area a neutral weight.
func defaultWeights() map[string]float64 {
	return map[string]float64{
		"security":     1.0,
		"quality":      1.0,
		"performance":  1.0,
		"architecture": 1.0,
		"testing":      1.0,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("strictness", string(review.StrictnessStandard))
	v.SetDefault("focus_areas", []string{"security", "quality", "performance"})
	v.SetDefault("learning_mode", false)
	v.SetDefault("coaching", true)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("provider", "openai")
	v.SetDefault("vcs.platform", "github")
	v.SetDefault("lint.command", "")
}

// Load resolves the configuration from the default file location, the
// environment, and defaults. A missing config file is not an error.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if home, err := homedir.Dir(); err == nil {
		v.SetConfigFile(filepath.Join(home, ConfigDirName, ConfigFileName))
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix("QUORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds and validates a Config from an already-populated store.
// Split out so tests can feed a synthetic viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	weights := defaultWeights()
	for area, w := range v.GetStringMap("weights") {
		f, ok := toFloat(w)
		if !ok {
			return Config{}, &ConfigurationError{
				Field:  "weights." + area,
				Reason: fmt.Sprintf("not a number: %v", w),
			}
		}
		weights[area] = f
	}

	cfg := Config{
		Strictness:      review.Strictness(v.GetString("strictness")),
		FocusAreas:      v.GetStringSlice("focus_areas"),
		Weights:         weights,
		LearningMode:    v.GetBool("learning_mode"),
		CoachingEnabled: v.GetBool("coaching"),
		Concurrency:     v.GetInt("concurrency"),
		MaxRetries:      v.GetInt("max_retries"),
		Debug:           v.GetBool("debug"),
		Provider:        v.GetString("provider"),
		VCSPlatform:     v.GetString("vcs.platform"),
		VCSToken:        v.GetString("vcs.token"),
		VCSBaseURL:      v.GetString("vcs.base_url"),
		VCSRepo:         v.GetString("vcs.repo"),
		LintCommand:     v.GetString("lint.command"),
		ProjectName:     v.GetString("project.name"),
		CriticalPaths:   v.GetStringSlice("project.critical_paths"),
		Viper:           v,
		OutWriter:       os.Stdout,
		ErrWriter:       os.Stderr,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the engine depends on. Any violation is a
// ConfigurationError.
func (c Config) Validate() error {
	if !c.Strictness.Valid() {
		return &ConfigurationError{
			Field:  "strictness",
			Reason: fmt.Sprintf("unknown level %q (coaching, standard, strict, blocking)", c.Strictness),
		}
	}
	for area, w := range c.Weights {
		if w < minWeight || w > maxWeight {
			return &ConfigurationError{
				Field:  "weights." + area,
				Reason: fmt.Sprintf("weight %v out of range [%v, %v]", w, minWeight, maxWeight),
			}
		}
	}
	if c.Concurrency < 1 {
		return &ConfigurationError{
			Field:  "concurrency",
			Reason: fmt.Sprintf("pool size %d must be at least 1", c.Concurrency),
		}
	}
	if c.MaxRetries < 0 {
		return &ConfigurationError{
			Field:  "max_retries",
			Reason: fmt.Sprintf("retry cap %d must not be negative", c.MaxRetries),
		}
	}
	if len(c.FocusAreas) == 0 {
		return &ConfigurationError{
			Field:  "focus_areas",
			Reason: "at least one focus area must be enabled",
		}
	}
	return nil
}

// FocusEnabled reports whether the given focus area is enabled.
func (c Config) FocusEnabled(area string) bool {
	for _, a := range c.FocusAreas {
		if strings.EqualFold(a, area) {
			return true
		}
	}
	return false
}

// Weight returns the configured weight for a focus area, defaulting to 1.0
// for areas without an explicit entry.
func (c Config) Weight(area string) float64 {
	if w, ok := c.Weights[area]; ok {
		return w
	}
	return 1.0
}

// Settings snapshots the slice of configuration the review context carries.
func (c Config) Settings() review.Settings {
	return review.Settings{
		Strictness:      c.Strictness,
		CoachingEnabled: c.CoachingEnabled,
	}
}

// ProviderStore returns the viper subtree scoped to the selected provider's
// block (api_key, model, timeout, ...), or an empty store when absent.
func (c Config) ProviderStore() *viper.Viper {
	if c.Viper == nil {
		return viper.New()
	}
	if sub := c.Viper.Sub("providers." + c.Provider); sub != nil {
		return sub
	}
	return viper.New()
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
