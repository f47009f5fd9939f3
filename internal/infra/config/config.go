// Package config loads agent settings. Priority: defaults < setting.yml
// < environment (BRAIN_*). A missing settings file is fine; a malformed
// one is an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "setting.yml"

// Config holds everything the agent needs at runtime.
type Config struct {
	TelegramToken  string
	OpenAIKey      string
	OpenAIBaseURL  string
	Model          string
	Host           string
	Port           int
	WebhookBaseURL string
	DataDir        string
	HistoryLimit   int
	PendingTTL     time.Duration
	LLMTimeout     time.Duration
	LogLevel       string
}

// fileConfig is the on-disk yaml shape. Durations are strings so the
// file can say "5s" or a bare number of seconds.
type fileConfig struct {
	TelegramToken  *string `yaml:"telegram_token"`
	OpenAIKey      *string `yaml:"openai_key"`
	OpenAIBaseURL  *string `yaml:"openai_base_url"`
	Model          *string `yaml:"model"`
	Host           *string `yaml:"host"`
	Port           *int    `yaml:"port"`
	WebhookBaseURL *string `yaml:"webhook_base_url"`
	DataDir        *string `yaml:"data_dir"`
	HistoryLimit   *int    `yaml:"history_limit"`
	PendingTTL     *string `yaml:"pending_ttl"`
	LLMTimeout     *string `yaml:"llm_timeout"`
	LogLevel       *string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Model:        "gpt-4o-mini",
		Host:         "localhost",
		Port:         8060,
		DataDir:      "data/notes",
		HistoryLimit: 50,
		PendingTTL:   5 * time.Minute,
		LLMTimeout:   30 * time.Second,
		LogLevel:     "info",
	}
}

// Load builds the config from path (empty means DefaultPath).
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultPath
	}
	if data, err := os.ReadFile(path); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		applyFile(&cfg, fc)
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Addr returns the listen address for the web server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.TelegramToken != nil {
		cfg.TelegramToken = *fc.TelegramToken
	}
	if fc.OpenAIKey != nil {
		cfg.OpenAIKey = *fc.OpenAIKey
	}
	if fc.OpenAIBaseURL != nil {
		cfg.OpenAIBaseURL = *fc.OpenAIBaseURL
	}
	if fc.Model != nil {
		cfg.Model = *fc.Model
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.WebhookBaseURL != nil {
		cfg.WebhookBaseURL = *fc.WebhookBaseURL
	}
	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.HistoryLimit != nil && *fc.HistoryLimit > 0 {
		cfg.HistoryLimit = *fc.HistoryLimit
	}
	if fc.PendingTTL != nil {
		cfg.PendingTTL = toDuration(*fc.PendingTTL, cfg.PendingTTL)
	}
	if fc.LLMTimeout != nil {
		cfg.LLMTimeout = toDuration(*fc.LLMTimeout, cfg.LLMTimeout)
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("BRAIN_TELEGRAM_TOKEN", &cfg.TelegramToken)
	str("BRAIN_OPENAI_KEY", &cfg.OpenAIKey)
	str("BRAIN_OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	str("BRAIN_MODEL", &cfg.Model)
	str("BRAIN_HOST", &cfg.Host)
	str("BRAIN_WEBHOOK_BASE_URL", &cfg.WebhookBaseURL)
	str("BRAIN_DATA_DIR", &cfg.DataDir)
	str("BRAIN_LOG_LEVEL", &cfg.LogLevel)

	if v := os.Getenv("BRAIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("BRAIN_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("BRAIN_LLM_TIMEOUT"); v != "" {
		cfg.LLMTimeout = toDuration(v, cfg.LLMTimeout)
	}
	if v := os.Getenv("BRAIN_PENDING_TTL"); v != "" {
		cfg.PendingTTL = toDuration(v, cfg.PendingTTL)
	}
}

// toDuration accepts either a Go duration string or a bare number of
// seconds.
func toDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
