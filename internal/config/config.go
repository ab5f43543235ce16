package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Prefs   PrefsConfig   `mapstructure:"prefs"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // in-memory | postgres
	DSN    string `mapstructure:"dsn"`
}

type PrefsConfig struct {
	Driver string `mapstructure:"driver"` // memory | redis
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type NotifyConfig struct {
	InboxSize int `mapstructure:"inbox_size"`
}

type SeedConfig struct {
	Users int   `mapstructure:"users"`
	Posts int   `mapstructure:"posts"`
	Seed  int64 `mapstructure:"seed"`
}

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
	PrefsMemory     = "memory"
	PrefsRedis      = "redis"
)

// New returns a viper instance with defaults and environment binding. Keys map
// to variables by upper-casing and replacing dots, e.g. storage.dsn is
// STORAGE_DSN.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("storage.driver", StorageInMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("prefs.driver", PrefsMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("notify.inbox_size", 50)
	v.SetDefault("seed.users", 0)
	v.SetDefault("seed.posts", 0)
	v.SetDefault("seed.seed", 0)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (when present), then the optional YAML file, then the
// environment, and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageInMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Prefs.Driver {
	case PrefsMemory:
	case PrefsRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must be set for redis preferences")
		}
	default:
		return fmt.Errorf("unknown prefs driver %q", c.Prefs.Driver)
	}

	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}
