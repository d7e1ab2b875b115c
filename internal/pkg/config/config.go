package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// MinPollInterval and MaxPollInterval bound the discussion/routing poll
	// cadence. The device tolerates sub-second polling but melts below 50ms.
	MinPollInterval = 50 * time.Millisecond
	MaxPollInterval = 10 * time.Second

	DefaultPollInterval = 500 * time.Millisecond
)

var (
	ErrMissingHost        = errors.New("dicentis host is required")
	ErrMissingCredentials = errors.New("dicentis username and password are required")
)

type Config struct {
	DicentisCfg *DicentisConfig
	MqttCfg     *MqttConfig
	APICfg      *APIConfig
	DatabaseURL string
	Retention   time.Duration
	LogLevel    string
}

// DicentisConfig is everything the engine needs to reach and mirror the
// conference server.
type DicentisConfig struct {
	Host         string        `env:"DICENTIS_HOST"`
	Username     string        `env:"DICENTIS_USERNAME"`
	Password     string        `env:"DICENTIS_PASSWORD"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"500ms"`
	Reconnect    bool          `env:"RECONNECT" envDefault:"true"`
	Verbose      bool          `env:"VERBOSE_LOGGING"`
}

type MqttConfig struct {
	Host      string `env:"MQTT_HOST"`
	Username  string `env:"MQTT_USER"`
	Password  string `env:"MQTT_PASS"`
	ClientID  string `env:"MQTT_CLIENT_ID" envDefault:"dicentis-bridge"`
	TopicRoot string `env:"MQTT_TOPIC_ROOT" envDefault:"dicentis"`
}

type APIConfig struct {
	Addr     string `env:"API_ADDR" envDefault:"0.0.0.0:8000"`
	Secret   string `env:"API_SECRET"`
	Username string `env:"API_USERNAME"`
	// PasswordHash is a bcrypt hash of the API password, not the password itself.
	PasswordHash string `env:"API_PASSWORD_HASH"`
}

// FromEnv builds a DicentisConfig from environment variables alone. The CLI
// flags in main.go layer on top of this for interactive use.
func FromEnv() (*DicentisConfig, error) {
	cfg := &DicentisConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports whether the config is complete enough to attempt a
// connection. A failing config is a blocking status: the engine makes no
// connection attempt and schedules no retry until reconfigured.
func (c *DicentisConfig) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ClampedPollInterval returns the poll interval forced into the supported
// range, defaulting when unset.
func (c *DicentisConfig) ClampedPollInterval() time.Duration {
	interval := c.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	if interval > MaxPollInterval {
		interval = MaxPollInterval
	}
	return interval
}

// ConnectionFieldsEqual reports whether two configs agree on every field
// that affects the socket itself. Changes to anything else (poll interval,
// verbosity) do not warrant tearing the connection down.
func (c *DicentisConfig) ConnectionFieldsEqual(other *DicentisConfig) bool {
	if other == nil {
		return false
	}
	return c.Host == other.Host &&
		c.Username == other.Username &&
		c.Password == other.Password
}
