// Package config loads devicestated's YAML configuration: the list of
// servers to drive, plus the ambient event-log and metrics surface
// (SPEC_FULL §6). Generalized from the teacher's single AMIConfig+MQTTConfig
// pair to a list of ServerConfig entries.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Servers  []ServerConfig `yaml:"servers"`
	EventLog EventLogConfig `yaml:"eventlog"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig is one Asterisk PBX target, per spec §3's ServerConfig.
type ServerConfig struct {
	Name             string        `yaml:"name"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Prefix           string        `yaml:"prefix"`
	Timeout          time.Duration `yaml:"timeout"`
	RetryInterval    time.Duration `yaml:"retry_interval"`
	Username         string        `yaml:"username"`
	Secret           string        `yaml:"secret"`
	ExtensionPattern string        `yaml:"extension_pattern"`
	DeviceFormat     string        `yaml:"device_format"`
}

// EventLogConfig selects which eventlog.Sink implementations to wire up.
type EventLogConfig struct {
	Console bool            `yaml:"console"`
	MQTT    *MQTTSinkConfig `yaml:"mqtt"`
}

// MQTTSinkConfig configures the optional MQTT-forwarding event log sink.
type MQTTSinkConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// MetricsConfig configures the optional /metrics HTTP listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// ConfigError is raised at startup for invalid or missing config fields
// (spec §7). It is always fatal.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

const (
	defaultPort          = 8088
	defaultPrefix        = "asterisk"
	defaultTimeout       = 45 * time.Second
	defaultRetryInterval = 30 * time.Second
	defaultDeviceFormat  = "Custom:$0"
)

// Load reads path, fills in §3's defaults for any unset ServerConfig
// field, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Servers {
		applyServerDefaults(&cfg.Servers[i])
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.Prefix == "" {
		s.Prefix = defaultPrefix
	}
	if s.Timeout == 0 {
		s.Timeout = defaultTimeout
	}
	if s.RetryInterval == 0 {
		s.RetryInterval = defaultRetryInterval
	}
	if s.DeviceFormat == "" {
		s.DeviceFormat = defaultDeviceFormat
	}
}

func (c *Config) validate() error {
	if len(c.Servers) == 0 {
		return &ConfigError{Message: "at least one server is required"}
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return &ConfigError{Message: "server.name is required"}
		}
		if seen[s.Name] {
			return &ConfigError{Message: fmt.Sprintf("duplicate server name %q", s.Name)}
		}
		seen[s.Name] = true

		if s.Host == "" {
			return &ConfigError{Message: fmt.Sprintf("server %q: host is required", s.Name)}
		}
		if s.Port < 0 || s.Port > 65535 {
			return &ConfigError{Message: fmt.Sprintf("server %q: port must be between 0 and 65535, got %d", s.Name, s.Port)}
		}
		if s.Timeout <= 0 {
			return &ConfigError{Message: fmt.Sprintf("server %q: timeout must be positive", s.Name)}
		}
		if s.RetryInterval <= 0 {
			return &ConfigError{Message: fmt.Sprintf("server %q: retry_interval must be positive", s.Name)}
		}
		if s.Username == "" {
			return &ConfigError{Message: fmt.Sprintf("server %q: username is required", s.Name)}
		}
		if s.Secret == "" {
			return &ConfigError{Message: fmt.Sprintf("server %q: secret is required", s.Name)}
		}
		if s.ExtensionPattern == "" {
			return &ConfigError{Message: fmt.Sprintf("server %q: extension_pattern is required", s.Name)}
		}
		if _, err := regexp.Compile(s.ExtensionPattern); err != nil {
			return &ConfigError{Message: fmt.Sprintf("server %q: extension_pattern does not compile: %v", s.Name, err)}
		}
	}

	if c.EventLog.MQTT != nil && c.EventLog.MQTT.Broker == "" {
		return &ConfigError{Message: "eventlog.mqtt.broker is required when eventlog.mqtt is set"}
	}

	return nil
}
