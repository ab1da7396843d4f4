package memory

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config is the resolved backend configuration for the short-term memory
// store. It is produced by an external resolver (config file, environment,
// connection URL) and consumed here as-is; this package never reads the
// environment itself.
type Config struct {
	Host     string `mapstructure:"host" yaml:"host" json:"host"`
	Port     int    `mapstructure:"port" yaml:"port" json:"port"`
	Password string `mapstructure:"password" yaml:"password" json:"-"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	TLS      bool   `mapstructure:"tls" yaml:"tls" json:"tls"`

	SocketTimeout        time.Duration `mapstructure:"socket_timeout" yaml:"socket_timeout" json:"socket_timeout"`
	SocketConnectTimeout time.Duration `mapstructure:"socket_connect_timeout" yaml:"socket_connect_timeout" json:"socket_connect_timeout"`

	RetryMaxAttempts int           `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" json:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay    time.Duration `mapstructure:"retry_max_delay" yaml:"retry_max_delay" json:"retry_max_delay"`

	// UseInMemory selects the in-memory backend instead of Redis. This is
	// the only path that yields an in-memory store without an error: an
	// unreachable Redis backend raises, it never silently degrades.
	UseInMemory bool `mapstructure:"use_in_memory" yaml:"use_in_memory" json:"use_in_memory"`
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.UseInMemory {
		return nil
	}

	if c.Host == "" {
		return NewInvalidConfigError("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return NewInvalidConfigError(fmt.Sprintf("port must be in 1..65535, got %d", c.Port))
	}
	if c.DB < 0 {
		return NewInvalidConfigError(fmt.Sprintf("db index cannot be negative, got %d", c.DB))
	}
	if c.RetryMaxAttempts <= 0 {
		return NewInvalidConfigError(fmt.Sprintf("retry_max_attempts must be greater than 0, got %d", c.RetryMaxAttempts))
	}
	if c.RetryBaseDelay <= 0 {
		return NewInvalidConfigError("retry_base_delay must be greater than 0")
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return NewInvalidConfigError("retry_max_delay must be at least retry_base_delay")
	}
	if c.SocketTimeout <= 0 {
		return NewInvalidConfigError("socket_timeout must be greater than 0")
	}
	if c.SocketConnectTimeout <= 0 {
		return NewInvalidConfigError("socket_connect_timeout must be greater than 0")
	}

	return nil
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.SocketTimeout == 0 {
		c.SocketTimeout = 5 * time.Second
	}
	if c.SocketConnectTimeout == 0 {
		c.SocketConnectTimeout = 5 * time.Second
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay == 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
}

// Addr returns the host:port address of the configured backend.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewDefaultConfig creates a Config with default values.
// This is useful for testing or when no configuration file is provided.
func NewDefaultConfig() *Config {
	config := &Config{}
	config.ApplyDefaults()
	return config
}
