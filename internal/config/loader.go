package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// Loader handles loading configuration from files and the environment.
type Loader interface {
	// Load reads the YAML file at path, applies ATTUNE_* environment
	// overrides and defaults, and validates the result.
	Load(path string) (*Config, error)

	// LoadWithDefaults behaves like Load, but a missing file yields the
	// default configuration instead of an error.
	LoadWithDefaults(path string) (*Config, error)
}

// viperLoader implements Loader using Viper.
type viperLoader struct{}

// NewLoader creates a new Loader instance.
func NewLoader() Loader {
	return &viperLoader{}
}

// Load loads configuration from the specified file path.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// ATTUNE_MEMORY_HOST overrides memory.host, and so on.
	v.SetEnvPrefix("ATTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file "+path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithDefaults loads configuration, falling back to defaults when the
// file does not exist.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return l.Load(path)
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories as needed. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return types.NewError(types.CONFIG_LOAD_FAILED, "config file already exists: "+path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to marshal default config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to write config file "+path, err)
	}
	return nil
}
