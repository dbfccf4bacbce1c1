// Package config loads runtime settings for the battle simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Turn policies understood by the combat loop.
const (
	PolicyAlternate = "alternate"
	PolicyReadiness = "readiness"
)

// Config is the full set of runtime settings.
type Config struct {
	Player  PlayerConfig  `mapstructure:"player"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Data    DataConfig    `mapstructure:"data"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// PlayerConfig describes the starting character.
type PlayerConfig struct {
	Name       string   `mapstructure:"name"`
	ActionRate float64  `mapstructure:"action_rate"`
	Skills     []string `mapstructure:"skills"`
	Sequence   []string `mapstructure:"sequence"`
}

// CombatConfig controls battle pacing.
type CombatConfig struct {
	ActionDelay time.Duration `mapstructure:"action_delay"`
	TickTime    float64       `mapstructure:"tick_time"`
	TurnPolicy  string        `mapstructure:"turn_policy"`
	// Seed for the battle RNG. 0 picks a time-based seed.
	Seed     int64 `mapstructure:"seed"`
	Battles  int   `mapstructure:"battles"`
	Headless bool  `mapstructure:"headless"`
}

// DataConfig points at optional on-disk data tables that override the
// embedded ones.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// StorageConfig configures the battle history database. An empty path
// disables history recording.
type StorageConfig struct {
	HistoryPath string `mapstructure:"history_path"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Default returns the built-in settings.
func Default() *Config {
	v := newViper()
	cfg := &Config{}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads settings from the optional file at path, then applies
// SKIRMISH_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the decoder cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Combat.TickTime <= 0 {
		errs = append(errs, fmt.Errorf("combat.tick_time must be positive, got %v", c.Combat.TickTime))
	}
	if c.Combat.ActionDelay < 0 {
		errs = append(errs, fmt.Errorf("combat.action_delay must not be negative, got %v", c.Combat.ActionDelay))
	}
	switch c.Combat.TurnPolicy {
	case PolicyAlternate, PolicyReadiness:
	default:
		errs = append(errs, fmt.Errorf("combat.turn_policy %q is not one of %s, %s",
			c.Combat.TurnPolicy, PolicyAlternate, PolicyReadiness))
	}
	if c.Player.ActionRate < 0 {
		errs = append(errs, fmt.Errorf("player.action_rate must not be negative, got %v", c.Player.ActionRate))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}
	if len(c.Player.Sequence) > 5 {
		errs = append(errs, fmt.Errorf("player.sequence holds at most 5 skills, got %d", len(c.Player.Sequence)))
	}
	return errors.Join(errs...)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("player.name", "Hero")
	v.SetDefault("player.action_rate", 1.0)
	v.SetDefault("player.skills", []string{"basic_attack", "defend", "heal"})
	v.SetDefault("player.sequence", []string{"basic_attack", "basic_attack", "basic_attack"})

	v.SetDefault("combat.action_delay", 800*time.Millisecond)
	v.SetDefault("combat.tick_time", 1.0)
	v.SetDefault("combat.turn_policy", PolicyAlternate)
	v.SetDefault("combat.seed", 0)
	v.SetDefault("combat.battles", 1)
	v.SetDefault("combat.headless", false)

	v.SetDefault("data.dir", "")
	v.SetDefault("storage.history_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("tracing.enabled", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetEnvPrefix("skirmish")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
