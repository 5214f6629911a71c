package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	StaticPath  string        `mapstructure:"static_path"`
	Secret      string        `mapstructure:"secret"`
	DatabaseURL string        `mapstructure:"database_url"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`

	RoomGrace       time.Duration `mapstructure:"room_grace"`
	RoomIdleTimeout time.Duration `mapstructure:"room_idle_timeout"`
	ReaperInterval  time.Duration `mapstructure:"reaper_interval"`

	JoinRateLimit    int           `mapstructure:"join_rate_limit"`
	JoinRateInterval time.Duration `mapstructure:"join_rate_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	// Deliberately empty: the key must be known to viper so the env
	// override is seen, but there is no safe fallback value.
	v.SetDefault("secret", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("database_url", "postgres://localhost/telemedecin?sslmode=disable")
	v.SetDefault("room_grace", "30s")
	v.SetDefault("room_idle_timeout", "45m")
	v.SetDefault("reaper_interval", "1m")
	v.SetDefault("join_rate_limit", 10)
	v.SetDefault("join_rate_interval", "1m")

	v.SetEnvPrefix("telemedecin")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// An empty secret would silently produce unsigned session cookies.
	if cfg.Secret == "" {
		return nil, errors.New("secret is not set (config key \"secret\" or TELEMEDECIN_SECRET)")
	}
	return &cfg, nil
}
