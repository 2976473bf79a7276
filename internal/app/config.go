// Package app provides the application container wiring config, services
// and the realtime hub together.
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/util"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig is the client-core configuration.
type AppConfig struct {
	File          string              `yaml:"-"` // config file path, not serialized
	Api           ApiConfig           `yaml:"api"`
	Chat          ChatConfig          `yaml:"chat"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Security      SecurityConfig      `yaml:"security"`
	App           AppSettings         `yaml:"app"`
	Log           LogConfig           `yaml:"log"`
}

// ApiConfig configures the REST client.
type ApiConfig struct {
	// BaseURL REST API base, e.g. https://host/api
	BaseURL string `yaml:"base-url" default:"http://localhost:5225"`
	// Timeout per-request timeout
	Timeout string `yaml:"timeout" default:"15s"`
	// ReadRetries transient-failure retries for read requests only
	ReadRetries int `yaml:"read-retries" default:"1"`
	// RetryBackoff delay before a read retry
	RetryBackoff string `yaml:"retry-backoff" default:"500ms"`
	// TraceHeader trace ID request header name
	TraceHeader string `yaml:"trace-header" default:"X-Trace-ID"`
}

// ChatConfig configures the realtime hub.
type ChatConfig struct {
	// Endpoint websocket URL of the chat hub
	Endpoint string `yaml:"endpoint" default:"ws://localhost:5225/chathub"`
	// PingInterval keep-alive cadence
	PingInterval string `yaml:"ping-interval" default:"25s"`
	// ReconnectBase first reconnect delay, doubled per attempt
	ReconnectBase string `yaml:"reconnect-base" default:"1s"`
	// ReconnectCap upper bound on the reconnect delay
	ReconnectCap string `yaml:"reconnect-cap" default:"30s"`
	// MaxReconnectAttempts attempts before the hub gives up as failed
	MaxReconnectAttempts int `yaml:"max-reconnect-attempts" default:"5"`
	// GuardInterval how often a failed hub is re-initialized, empty disables
	GuardInterval string `yaml:"guard-interval" default:"1m"`
	// SendRate sustained chat sends per second
	SendRate float64 `yaml:"send-rate" default:"1"`
	// SendBurst chat send burst capacity
	SendBurst int64 `yaml:"send-burst" default:"5"`
}

// NotificationsConfig configures the unread-notification poll.
type NotificationsConfig struct {
	// PollInterval unread poll cadence, empty disables the loop
	PollInterval string `yaml:"poll-interval" default:"30s"`
}

// SecurityConfig configures credential acquisition.
type SecurityConfig struct {
	// TokenFile file the access token is read from on every use
	TokenFile string `yaml:"token-file" default:"storage/token"`
}

// AppSettings holds general behavior knobs.
type AppSettings struct {
	// Language message language for error codes
	Language string `yaml:"language" default:"en"`
	// DefaultPageSize chat history page size
	DefaultPageSize int `yaml:"default-page-size" default:"50"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level log level, see zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File log file path, empty logs to stderr only
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production enables JSON output
	Production bool `yaml:"production" default:"true"`
}

// LoadConfig loads the configuration from a file.
// Returns the config instance and the absolute path of the config file.
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// defaults.Set only fills zero-valued fields, so running it again after
	// unmarshal repairs fields the YAML left empty.
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save writes the configuration back to its file.
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetApiTimeout returns the per-request timeout.
func (c *AppConfig) GetApiTimeout() time.Duration {
	return c.duration(c.Api.Timeout, 15*time.Second)
}

// GetRetryBackoff returns the read retry delay.
func (c *AppConfig) GetRetryBackoff() time.Duration {
	return c.duration(c.Api.RetryBackoff, 500*time.Millisecond)
}

// GetPingInterval returns the hub keep-alive cadence.
func (c *AppConfig) GetPingInterval() time.Duration {
	return c.duration(c.Chat.PingInterval, 25*time.Second)
}

// GetReconnectBase returns the first reconnect delay.
func (c *AppConfig) GetReconnectBase() time.Duration {
	return c.duration(c.Chat.ReconnectBase, time.Second)
}

// GetReconnectCap returns the reconnect delay cap.
func (c *AppConfig) GetReconnectCap() time.Duration {
	return c.duration(c.Chat.ReconnectCap, 30*time.Second)
}

// GetGuardInterval returns the hub guard cadence, 0 when disabled.
func (c *AppConfig) GetGuardInterval() time.Duration {
	if c.Chat.GuardInterval == "" {
		return 0
	}
	return c.duration(c.Chat.GuardInterval, time.Minute)
}

// GetPollInterval returns the notification poll cadence, 0 when disabled.
func (c *AppConfig) GetPollInterval() time.Duration {
	if c.Notifications.PollInterval == "" {
		return 0
	}
	return c.duration(c.Notifications.PollInterval, 30*time.Second)
}

func (c *AppConfig) duration(s string, fallback time.Duration) time.Duration {
	if d, err := util.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
