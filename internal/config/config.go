// Package config loads service configuration from a YAML file and
// RISK_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
	Seed   bool   `mapstructure:"seed"`
}

type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"min=1s"`
}

type NotifyConfig struct {
	SMTPHost       string        `mapstructure:"smtp_host"`
	SMTPPort       int           `mapstructure:"smtp_port"`
	SMTPFrom       string        `mapstructure:"smtp_from"`
	SMTPUsername   string        `mapstructure:"smtp_username"`
	SMTPPassword   string        `mapstructure:"smtp_password"`
	SMTPTimeout    time.Duration `mapstructure:"smtp_timeout"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from the given file (optional) and the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "risk_control.db")
	v.SetDefault("database.seed", true)
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("notify.smtp_host", "localhost")
	v.SetDefault("notify.smtp_port", 25)
	v.SetDefault("notify.smtp_from", "alerts@riskcontrol.local")
	v.SetDefault("notify.smtp_timeout", 10*time.Second)
	v.SetDefault("notify.webhook_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
