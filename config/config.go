// Package config loads the binary's configuration from a yaml file with
// environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Debug   DebugConfig   `mapstructure:"debug"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ModelConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Name           string `mapstructure:"name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (w WebhookConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

type DebugConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SchemaConfig struct {
	// ExtraRequired promotes optional fields (ascensor, amueblado,
	// mascotas, planta, estado) to required for this deployment.
	ExtraRequired []string `mapstructure:"extra_required"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads .env (when present), then config.yaml, then applies env
// overrides such as INTAKE_MODEL_API_KEY and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if cfg.Model.APIKey == "" {
		return nil, fmt.Errorf("model api_key is required (set INTAKE_MODEL_API_KEY)")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Model.Name == "" {
		cfg.Model.Name = "gpt-4o-mini"
	}
	if cfg.Model.TimeoutSeconds <= 0 {
		cfg.Model.TimeoutSeconds = 30
	}
	if cfg.Webhook.TimeoutSeconds <= 0 {
		cfg.Webhook.TimeoutSeconds = 10
	}
	if cfg.Debug.CSVPath == "" {
		cfg.Debug.CSVPath = "data/pisos_debug.csv"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
