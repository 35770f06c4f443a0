package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting of the client: where the REST API and
// the realtime backend live, where the local session database sits, and the
// public site URL used for share links.
type Config struct {
	API      *APIConfig      `json:"api"`
	Realtime *RealtimeConfig `json:"realtime"`
	Session  *SessionConfig  `json:"session"`
	Site     *SiteConfig     `json:"site"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// RealtimeConfig configures the websocket channel.
type RealtimeConfig struct {
	URL          string        `json:"url"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

// SessionConfig configures the local session store.
type SessionConfig struct {
	Path string `json:"path"`
}

// SiteConfig carries the public site URL used to build invite links.
type SiteConfig struct {
	URL string `json:"url"`
}

// DefaultConfig returns settings that work against a local backend.
func DefaultConfig() *Config {
	return &Config{
		API: &APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 30 * time.Second,
		},
		Realtime: &RealtimeConfig{
			URL:          "ws://localhost:5000/ws",
			DialTimeout:  10 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Session: &SessionConfig{
			Path: "./studybrain-session.db",
		},
		Site: &SiteConfig{
			URL: "http://localhost:3000",
		},
	}
}

// Validate rejects configurations that would fail at first use.
func (c *Config) Validate() error {
	if c.API == nil {
		return fmt.Errorf("api configuration is required")
	}

	if err := validateURL(c.API.BaseURL, "http", "https"); err != nil {
		return fmt.Errorf("api base URL: %w", err)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}

	if c.Realtime == nil {
		return fmt.Errorf("realtime configuration is required")
	}

	if err := validateURL(c.Realtime.URL, "ws", "wss"); err != nil {
		return fmt.Errorf("realtime URL: %w", err)
	}

	if c.Realtime.DialTimeout <= 0 {
		return fmt.Errorf("realtime dial timeout must be positive")
	}

	if c.Realtime.ReadTimeout <= 0 {
		return fmt.Errorf("realtime read timeout must be positive")
	}

	if c.Realtime.WriteTimeout <= 0 {
		return fmt.Errorf("realtime write timeout must be positive")
	}

	if c.Realtime.BufferSize <= 0 {
		return fmt.Errorf("realtime buffer size must be positive")
	}

	if c.Session == nil || c.Session.Path == "" {
		return fmt.Errorf("session store path cannot be empty")
	}

	if c.Site == nil {
		return fmt.Errorf("site configuration is required")
	}

	if err := validateURL(c.Site.URL, "http", "https"); err != nil {
		return fmt.Errorf("site URL: %w", err)
	}

	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("URL %q must use scheme %v", raw, schemes)
}

// LoadFromEnv builds a config from defaults overridden by STUDYBRAIN_*
// environment variables.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if base := os.Getenv("STUDYBRAIN_API_BASE_URL"); base != "" {
		config.API.BaseURL = base
	}

	if timeout := os.Getenv("STUDYBRAIN_API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = d
		}
	}

	if rtURL := os.Getenv("STUDYBRAIN_REALTIME_URL"); rtURL != "" {
		config.Realtime.URL = rtURL
	}

	if dial := os.Getenv("STUDYBRAIN_REALTIME_DIAL_TIMEOUT"); dial != "" {
		if d, err := time.ParseDuration(dial); err == nil {
			config.Realtime.DialTimeout = d
		}
	}

	if read := os.Getenv("STUDYBRAIN_REALTIME_READ_TIMEOUT"); read != "" {
		if d, err := time.ParseDuration(read); err == nil {
			config.Realtime.ReadTimeout = d
		}
	}

	if write := os.Getenv("STUDYBRAIN_REALTIME_WRITE_TIMEOUT"); write != "" {
		if d, err := time.ParseDuration(write); err == nil {
			config.Realtime.WriteTimeout = d
		}
	}

	if size := os.Getenv("STUDYBRAIN_REALTIME_BUFFER_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.Realtime.BufferSize = n
		}
	}

	if path := os.Getenv("STUDYBRAIN_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}

	if site := os.Getenv("STUDYBRAIN_SITE_URL"); site != "" {
		config.Site.URL = site
	}

	return config
}

// ConfigFile is the JSON shape for file-based configuration. Durations are
// strings so files stay human-editable.
type ConfigFile struct {
	API      *APIConfigFile      `json:"api"`
	Realtime *RealtimeConfigFile `json:"realtime"`
	Session  *SessionConfig      `json:"session"`
	Site     *SiteConfig         `json:"site"`
}

type APIConfigFile struct {
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout"`
}

type RealtimeConfigFile struct {
	URL          string `json:"url"`
	DialTimeout  string `json:"dial_timeout"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	BufferSize   int    `json:"buffer_size"`
}

// LoadFromFile reads a JSON config file, applying values over defaults.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filepath, err)
	}

	config := DefaultConfig()

	if configFile.API != nil {
		if configFile.API.BaseURL != "" {
			config.API.BaseURL = configFile.API.BaseURL
		}
		if configFile.API.Timeout != "" {
			if d, err := time.ParseDuration(configFile.API.Timeout); err == nil {
				config.API.Timeout = d
			}
		}
	}

	if configFile.Realtime != nil {
		if configFile.Realtime.URL != "" {
			config.Realtime.URL = configFile.Realtime.URL
		}
		if configFile.Realtime.BufferSize > 0 {
			config.Realtime.BufferSize = configFile.Realtime.BufferSize
		}
		if configFile.Realtime.DialTimeout != "" {
			if d, err := time.ParseDuration(configFile.Realtime.DialTimeout); err == nil {
				config.Realtime.DialTimeout = d
			}
		}
		if configFile.Realtime.ReadTimeout != "" {
			if d, err := time.ParseDuration(configFile.Realtime.ReadTimeout); err == nil {
				config.Realtime.ReadTimeout = d
			}
		}
		if configFile.Realtime.WriteTimeout != "" {
			if d, err := time.ParseDuration(configFile.Realtime.WriteTimeout); err == nil {
				config.Realtime.WriteTimeout = d
			}
		}
	}

	if configFile.Session != nil && configFile.Session.Path != "" {
		config.Session.Path = configFile.Session.Path
	}

	if configFile.Site != nil && configFile.Site.URL != "" {
		config.Site.URL = configFile.Site.URL
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath, err)
	}

	return config, nil
}

// LoadWithPrecedence resolves configuration as file > environment >
// defaults. File errors are ignored so environment and defaults still work.
func LoadWithPrecedence(filepath string) *Config {
	config := LoadFromEnv()

	if filepath != "" {
		if fileConfig, err := LoadFromFile(filepath); err == nil {
			config = fileConfig
		}
	}

	return config
}
