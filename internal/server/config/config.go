// Package config loads the sync server settings from the environment,
// an optional .env file and an optional yaml file
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "POSTBOY_SERVER"

	defaultAddr          = ":8080"
	defaultDBPath        = "postboy-server.db"
	defaultTokenTTL      = time.Hour
	defaultShutdown      = 10 * time.Second
	defaultAuthRateLimit = 10
	defaultEnv           = "local"
	defaultLogLevel      = "info"
)

// Config настройки сервера синхронизации
type Config struct {
	Addr            string        `mapstructure:"addr"`
	DBPath          string        `mapstructure:"db_path"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	APIKeys         []string      `mapstructure:"-"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AuthRateLimit   int           `mapstructure:"auth_rate_limit"` // AuthRateLimit запросов токена в минуту с одного IP
}

// Load reads .env (when present), then configFile (when not empty), then
// POSTBOY_SERVER_* environment variables, later sources winning
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", defaultAddr)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("token_ttl", defaultTokenTTL)
	v.SetDefault("shutdown_timeout", defaultShutdown)
	v.SetDefault("auth_rate_limit", defaultAuthRateLimit)
	v.SetDefault("env", defaultEnv)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("api_keys", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.APIKeys = splitKeys(v.GetStringSlice("api_keys"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные настройки
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt_secret must be at least 16 characters"))
	}
	if len(c.APIKeys) == 0 {
		errs = append(errs, errors.New("at least one api key is required (api_keys)"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("auth_rate_limit must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// splitKeys принимает и список из yaml, и строку через запятую из env
func splitKeys(raw []string) []string {
	var keys []string
	for _, item := range raw {
		for _, key := range strings.Split(item, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys
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
