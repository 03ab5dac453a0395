package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/camuig/robot-analytics/internal/trades"
)

type Config struct {
	Web      WebConfig         `yaml:"web"`
	Logging  LoggingConfig     `yaml:"logging"`
	Storage  StorageConfig     `yaml:"storage"`
	Telegram TelegramConfig    `yaml:"telegram"`
	Filters  FiltersConfig     `yaml:"filters"`
	Preload  map[string]string `yaml:"preload"` // bucket -> spreadsheet path
}

type WebConfig struct {
	Port        int `yaml:"port"`
	MaxUploadMB int `yaml:"max_upload_mb"`
	PageSize    int `yaml:"page_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type FiltersConfig struct {
	RD       SliderConfig `yaml:"rd"`
	PackSize SliderConfig `yaml:"pack_size"`
}

// SliderConfig describes a numeric range control: its domain, its step and
// the window selected when the page opens.
type SliderConfig struct {
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Step       float64 `yaml:"step"`
	DefaultMin float64 `yaml:"default_min"`
	DefaultMax float64 `yaml:"default_max"`
}

// Load reads the YAML file, applies .env / environment overrides, fills
// defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("WEB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.MaxUploadMB == 0 {
		cfg.Web.MaxUploadMB = 20
	}
	if cfg.Web.PageSize == 0 {
		cfg.Web.PageSize = 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/robot-analytics.db"
	}
	if cfg.Filters.RD == (SliderConfig{}) {
		cfg.Filters.RD = SliderConfig{Min: 0, Max: 0.5, Step: 0.01, DefaultMin: 0.01, DefaultMax: 0.03}
	}
	if cfg.Filters.PackSize == (SliderConfig{}) {
		cfg.Filters.PackSize = SliderConfig{Min: 0, Max: 500, Step: 5, DefaultMin: 0, DefaultMax: 90}
	}
}

func (c *Config) Validate() error {
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web.port %d", c.Web.Port)
	}
	if c.Web.MaxUploadMB < 0 {
		return fmt.Errorf("web.max_upload_mb must not be negative")
	}
	if err := c.Filters.RD.validate("filters.rd"); err != nil {
		return err
	}
	if err := c.Filters.PackSize.validate("filters.pack_size"); err != nil {
		return err
	}
	for bucket := range c.Preload {
		if _, err := trades.ParseBucket(bucket); err != nil {
			return fmt.Errorf("preload: %w", err)
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (s SliderConfig) validate(name string) error {
	if s.Min > s.Max {
		return fmt.Errorf("%s: min %v is greater than max %v", name, s.Min, s.Max)
	}
	if s.Step <= 0 {
		return fmt.Errorf("%s: step must be positive", name)
	}
	if s.DefaultMin > s.DefaultMax {
		return fmt.Errorf("%s: default_min %v is greater than default_max %v", name, s.DefaultMin, s.DefaultMax)
	}
	return nil
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Web.MaxUploadMB) << 20
}
