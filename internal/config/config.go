// Package config loads jeebot settings from config.yaml and JEEBOT_*
// environment variables. Every key has a default, so a config file is
// optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by chat.provider.
const (
	ProviderHTTP    = "http"
	ProviderOpenAI  = "openai"
	ProviderOffline = "offline"
)

// Config holds the application configuration
type Config struct {
	Chat     ChatConfig     `mapstructure:"chat"`
	Reveal   RevealConfig   `mapstructure:"reveal"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// ChatConfig selects and configures the chat backend.
type ChatConfig struct {
	Provider     string        `mapstructure:"provider"`
	Endpoint     string        `mapstructure:"endpoint"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RevealConfig controls the typing animation.
type RevealConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// OCRConfig configures the tesseract recognizer.
type OCRConfig struct {
	Command  string        `mapstructure:"command"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig locates the quiz bank.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Dir is the per-user state directory, ~/.jeebot.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jeebot"
	}
	return filepath.Join(home, ".jeebot")
}

// Default returns the built-in settings.
func Default() Config {
	dir := Dir()
	return Config{
		Chat: ChatConfig{
			Provider: ProviderHTTP,
			Endpoint: "http://127.0.0.1:8000/chatbot/api/chat/",
			BaseURL:  "http://127.0.0.1:11434/v1",
			Model:    "qwen2.5:1.5b",
			Timeout:  60 * time.Second,
		},
		Reveal: RevealConfig{Delay: 50 * time.Millisecond},
		OCR: OCRConfig{
			Command:  "tesseract",
			Language: "eng",
			Timeout:  30 * time.Second,
		},
		Database: DatabaseConfig{Path: filepath.Join(dir, "jeebot.db")},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "jeebot.log"),
		},
	}
}

// Load reads configuration. CONFIG_PATH names an explicit file; otherwise
// config.yaml is looked up in the working directory and ~/.jeebot.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("JEEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Chat.Provider {
	case ProviderHTTP:
		if c.Chat.Endpoint == "" {
			return errors.New("config: chat.endpoint is required for the http provider")
		}
	case ProviderOpenAI:
		if c.Chat.Model == "" {
			return errors.New("config: chat.model is required for the openai provider")
		}
	case ProviderOffline:
	default:
		return fmt.Errorf("config: unknown chat.provider %q", c.Chat.Provider)
	}
	if c.Reveal.Delay <= 0 {
		return fmt.Errorf("config: reveal.delay must be positive, got %s", c.Reveal.Delay)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("chat.provider", d.Chat.Provider)
	v.SetDefault("chat.endpoint", d.Chat.Endpoint)
	v.SetDefault("chat.base_url", d.Chat.BaseURL)
	v.SetDefault("chat.api_key", d.Chat.APIKey)
	v.SetDefault("chat.model", d.Chat.Model)
	v.SetDefault("chat.system_prompt", d.Chat.SystemPrompt)
	v.SetDefault("chat.timeout", d.Chat.Timeout)
	v.SetDefault("reveal.delay", d.Reveal.Delay)
	v.SetDefault("ocr.command", d.OCR.Command)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.timeout", d.OCR.Timeout)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}
