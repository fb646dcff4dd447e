package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gte=0"`
	DatabasePath    string        `yaml:"database_path" validate:"required"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=text json"`

	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	Map      MapConfig      `yaml:"map"`
	Telegram TelegramConfig `yaml:"telegram"`
	Message  MessageConfig  `yaml:"message"`
}

// HTTPConfig for the API server
type HTTPConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// CatalogConfig selects where listings come from
type CatalogConfig struct {
	// Source is one of static (dataset file), sqlite (stored copy of the
	// dataset) or remote (HTTP API with the dataset as fallback)
	Source      string        `yaml:"source" validate:"oneof=static sqlite remote"`
	DatasetPath string        `yaml:"dataset_path" validate:"required"`
	Watch       bool          `yaml:"watch"`
	RemoteURL   string        `yaml:"remote_url" validate:"omitempty,url"`
	AccessKey   string        `yaml:"access_key"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	MinDelay    time.Duration `yaml:"min_delay" validate:"gte=0"`
	MaxDelay    time.Duration `yaml:"max_delay" validate:"gte=0,gtefield=MinDelay"`
}

// StorageConfig selects the driver for favorites, compare and recent
type StorageConfig struct {
	Driver        string `yaml:"driver" validate:"oneof=sqlite badger redis memory"`
	KeyPrefix     string `yaml:"key_prefix"`
	BadgerPath    string `yaml:"badger_path" validate:"required_if=Driver badger"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
}

// MapConfig for map projections
type MapConfig struct {
	GeohashPrecision uint `yaml:"geohash_precision" validate:"gte=1,lte=12"`
}

// TelegramConfig for Telegram bot settings
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Enabled  bool   `yaml:"enabled"`
}

// MessageConfig for contact message templates
type MessageConfig struct {
	TemplatePath string `yaml:"template_path"`
}

// Keys returns the storage keys of the favorites, compare and recent sets
func (s StorageConfig) Keys() (favorites, compare, recent string) {
	return s.KeyPrefix + "favorites", s.KeyPrefix + "compare", s.KeyPrefix + "recent"
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: 10 * time.Minute,
		DatabasePath:    "data/estates.db",
		LogLevel:        "info",
		LogFormat:       "text",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:      "static",
			DatasetPath: "data/listings.yaml",
			Watch:       true,
			Timeout:     10 * time.Second,
			MinDelay:    300 * time.Millisecond,
			MaxDelay:    800 * time.Millisecond,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			KeyPrefix:  "uk-estates-",
			BadgerPath: "data/badger",
		},
		Map: MapConfig{
			GeohashPrecision: 5,
		},
		Telegram: TelegramConfig{
			Enabled: true,
		},
		Message: MessageConfig{
			TemplatePath: "configs/message_template.txt",
		},
	}
}

// Load reads configuration from YAML file and environment variables. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides values with environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = chatID
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("CATALOG_SOURCE"); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv("CATALOG_REMOTE_URL"); v != "" {
		c.Catalog.RemoteURL = v
	}
	if v := os.Getenv("CATALOG_ACCESS_KEY"); v != "" {
		c.Catalog.AccessKey = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration for unknown choices and bad ranges
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
	}
	if c.Catalog.Source == "remote" && c.Catalog.RemoteURL == "" {
		return errors.New("invalid config: catalog.remote_url is required for the remote source")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("invalid config: telegram.chat_id is required when a bot token is set")
	}
	return nil
}
