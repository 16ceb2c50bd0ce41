// Package config loads the client settings. Sync settings themselves (mode,
// server, key, strategy) live in the local store and are changed by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "POSTBOY"

	// DirName каталог клиента в домашней директории
	DirName = ".postboy"

	defaultQueueCapacity = 1000
	defaultCallTimeout   = 30 * time.Second
	defaultIdleCheck     = 30 * time.Second
	defaultHistoryLimit  = 50
	defaultEnv           = "local"
	defaultLogLevel      = "info"
)

// Config настройки клиента
type Config struct {
	DBPath            string        `mapstructure:"db_path"`
	Env               string        `mapstructure:"env"`
	LogLevel          string        `mapstructure:"log_level"`
	DeviceName        string        `mapstructure:"device_name"`
	QueueCapacity     int           `mapstructure:"queue_capacity"`
	HistoryLimit      int           `mapstructure:"history_limit"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	IdleCheckInterval time.Duration `mapstructure:"idle_check_interval"`
}

// Load reads .env (when present), then the yaml file, then POSTBOY_*
// environment variables, later sources winning. With an empty configFile
// ~/.postboy/config.yaml is used when it exists.
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	home := homeDir()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", filepath.Join(home, "postboy.db"))
	v.SetDefault("queue_capacity", defaultQueueCapacity)
	v.SetDefault("call_timeout", defaultCallTimeout)
	v.SetDefault("idle_check_interval", defaultIdleCheck)
	v.SetDefault("history_limit", defaultHistoryLimit)
	v.SetDefault("env", defaultEnv)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("device_name", hostname())

	switch {
	case configFile != "":
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет настройки
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.QueueCapacity <= 0 {
		errs = append(errs, errors.New("queue_capacity must be positive"))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("history_limit must not be negative"))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("call_timeout must be positive"))
	}
	if c.IdleCheckInterval <= 0 {
		errs = append(errs, errors.New("idle_check_interval must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// EnsureDBDir создает каталог файла базы
func (c *Config) EnsureDBDir() error {
	dir := filepath.Dir(c.DBPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "postboy-client"
	}
	return name
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
