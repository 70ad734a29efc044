package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Printers PrintersConfig `yaml:"printers"`
	Queue    QueueConfig    `yaml:"queue"`
	History  HistoryConfig  `yaml:"history"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxPayloadBytes int64         `yaml:"max_payload_bytes"`
	MaxFieldLength  int           `yaml:"max_field_length"`
}

type PrintersConfig struct {
	Preferred    string        `yaml:"preferred"`
	DiscoveryTTL time.Duration `yaml:"discovery_ttl"`
	PollPeriod   time.Duration `yaml:"poll_period"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	DPI          int           `yaml:"dpi"`
}

type QueueConfig struct {
	Capacity   int `yaml:"capacity"`
	MaxRetries int `yaml:"max_retries"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type WebhookEndpoint struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

type WebhooksConfig struct {
	Endpoints []WebhookEndpoint `yaml:"endpoints"`
	Timeout   time.Duration     `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            40121,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			AllowedOrigins:  []string{"http://ibp-server.local", "https://ibp-server.local"},
			MaxPayloadBytes: 1 << 20,
			MaxFieldLength:  10000,
		},
		Printers: PrintersConfig{
			DiscoveryTTL: 5 * time.Second,
			PollPeriod:   250 * time.Millisecond,
			PollTimeout:  60 * time.Second,
			DPI:          300,
		},
		Queue: QueueConfig{
			Capacity:   256,
			MaxRetries: 3,
		},
		History: HistoryConfig{
			Path: "./data/labeld.db",
		},
		Webhooks: WebhooksConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()

	if v := os.Getenv("LABELD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("LABELD_DB_PATH"); v != "" {
		cfg.History.Path = v
	}

	if v := os.Getenv("LABELD_PREFERRED_PRINTER"); v != "" {
		cfg.Printers.Preferred = v
	}

	if v := os.Getenv("LABELD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Server.MaxPayloadBytes < 1 {
		return fmt.Errorf("max payload bytes must be positive")
	}

	if c.Server.MaxFieldLength < 1 {
		return fmt.Errorf("max field length must be positive")
	}

	if c.Printers.DiscoveryTTL < 0 {
		return fmt.Errorf("discovery TTL must be non-negative")
	}

	if c.Printers.PollPeriod <= 0 {
		return fmt.Errorf("poll period must be positive")
	}

	if c.Printers.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}

	if c.Printers.DPI < 1 {
		return fmt.Errorf("dpi must be positive")
	}

	if c.Queue.Capacity < 1 {
		return fmt.Errorf("queue capacity must be at least 1")
	}

	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}

	if c.History.Path == "" {
		return fmt.Errorf("history database path is required")
	}

	for i, ep := range c.Webhooks.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("webhook endpoint %d has no URL", i)
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}
