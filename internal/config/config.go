package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the rental service.
type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Actuator  ActuatorConfig  `mapstructure:"actuator"`
	Lock      LockConfig      `mapstructure:"lock"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateCache RateCacheConfig `mapstructure:"rate_cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// SweeperConfig controls the expiry reconciliation loop.
type SweeperConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
}

// ActuatorConfig points at the external power-control gateway. An empty
// BaseURL disables actuator calls.
type ActuatorConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequireStartAck bool          `mapstructure:"require_start_ack"`
}

// LockConfig selects the per-device lock implementation.
type LockConfig struct {
	Backend     string        `mapstructure:"backend"` // memory | redis
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	TTL         time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateCacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"

	envPrefix         = "RENTAL"
	defaultConfigDir  = "configs"
	defaultConfigName = "config"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "rental.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("sweeper.interval", 30*time.Second)
	v.SetDefault("sweeper.grace_period", 300*time.Second)
	v.SetDefault("actuator.base_url", "")
	v.SetDefault("actuator.api_key", "")
	v.SetDefault("actuator.timeout", 3*time.Second)
	v.SetDefault("actuator.require_start_ack", false)
	v.SetDefault("lock.backend", LockBackendMemory)
	v.SetDefault("lock.wait_timeout", 5*time.Second)
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("rate_cache.size", 128)
	v.SetDefault("rate_cache.ttl", time.Minute)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
}

// Load reads configuration from path (or configs/config.yml when path is empty),
// applying RENTAL_* environment overrides and values from an optional .env file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(defaultConfigDir)
		v.SetConfigName(defaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
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

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper.interval must be positive, got %s", c.Sweeper.Interval)
	}
	if c.Sweeper.GracePeriod < 0 {
		return fmt.Errorf("sweeper.grace_period must not be negative, got %s", c.Sweeper.GracePeriod)
	}
	switch c.Lock.Backend {
	case LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("lock.backend must be %q or %q, got %q", LockBackendMemory, LockBackendRedis, c.Lock.Backend)
	}
	if c.Actuator.Timeout <= 0 {
		return fmt.Errorf("actuator.timeout must be positive, got %s", c.Actuator.Timeout)
	}
	return nil
}
