package config

import (
	"github.com/Zeeeepa/attune-ai-sub009/internal/memory"
	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// Config is the top-level configuration for the short-term memory service.
type Config struct {
	Memory memory.Config `mapstructure:"memory" yaml:"memory" json:"memory"`
	Log    LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if err := c.Memory.Validate(); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "memory config validation failed", err)
	}
	if err := c.Log.Validate(); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "log config validation failed", err)
	}
	return nil
}

// Validate performs validation on the LogConfig.
func (c *LogConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"invalid log level '"+c.Level+"', must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Format] {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"invalid log format '"+c.Format+"', must be one of: text, json")
	}
	return nil
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	c.Memory.ApplyDefaults()
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// DefaultConfig creates a Config with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
