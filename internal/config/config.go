// Package config handles healthmate configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LLMConfig holds upstream completion service settings.
type LLMConfig struct {
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model          string  `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Config holds all healthmate configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Endpoint:       "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			Temperature:    0.7,
			MaxTokens:      500,
		},
		Server: ServerConfig{
			Addr: ":8081",
		},
		Session: SessionConfig{
			File: "health_session.json",
		},
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".healthmate"), nil
}

// Load reads configuration from config.yaml (CWD, then ~/.healthmate) with
// HEALTHMATE_* environment overrides. Missing files yield defaults; the
// OPENAI_API_KEY environment variable always wins for the upstream credential.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	defaults := DefaultConfig()
	v.SetDefault("llm.endpoint", defaults.LLM.Endpoint)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.timeout_seconds", defaults.LLM.TimeoutSeconds)
	v.SetDefault("llm.temperature", defaults.LLM.Temperature)
	v.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("session.file", defaults.Session.File)

	v.SetEnvPrefix("HEALTHMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return defaults, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, fmt.Errorf("parse config: %w", err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}

// Save writes configuration to the given path as YAML. The API key is not
// persisted.
func (c Config) Save(path string) error {
	out := c
	out.LLM.APIKey = ""

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
