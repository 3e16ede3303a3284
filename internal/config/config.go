package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type BotConfig struct {
	ID      string `yaml:"id"` // tenant id, threaded explicitly through wiring
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitConfig struct {
	URL string `yaml:"url"`
}

// PushConfig carries the business constants of the push scheduler. The cap,
// cooldown and window are product decisions, so they live in config rather
// than in code.
type PushConfig struct {
	DailyCap        int           `yaml:"daily_cap"`
	Cooldown        time.Duration `yaml:"cooldown"`
	WindowStartHour int           `yaml:"window_start_hour"` // UTC
	WindowEndHour   int           `yaml:"window_end_hour"`   // UTC, may precede start (spans midnight)
	BatchSize       int           `yaml:"batch_size"`
	MaxBatches      int           `yaml:"max_batches"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
	PromptDelay     time.Duration `yaml:"prompt_delay"`
	BoundsCacheTTL  time.Duration `yaml:"bounds_cache_ttl"`
	BatchCacheTTL   time.Duration `yaml:"batch_cache_ttl"`
}

type AppConfig struct {
	PublicBaseURL    string `yaml:"public_base_url"`
	ProfileCreateURL string `yaml:"profile_create_url"`
	ConnectURL       string `yaml:"connect_url"`
	ProfilesDir      string `yaml:"profiles_dir"`
}

type I18nConfig struct {
	Default   string   `yaml:"default"`
	Supported []string `yaml:"supported"`
}

type AdminConfig struct {
	Port int `yaml:"port"` // health + metrics; 0 disables the listener
}

type ConsumerConfig struct {
	MemoryLimitMB int `yaml:"memory_limit_mb"`
	MessagesLimit int `yaml:"messages_limit"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Rabbit   RabbitConfig   `yaml:"rabbit"`
	Push     PushConfig     `yaml:"push"`
	App      AppConfig      `yaml:"app"`
	I18n     I18nConfig     `yaml:"i18n"`
	Admin    AdminConfig    `yaml:"admin"`
	Consumer ConsumerConfig `yaml:"consumer"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis.addr is required")
	}
	if cfg.Rabbit.URL == "" {
		return nil, errors.New("rabbit.url is required")
	}
	if cfg.Push.WindowStartHour < 0 || cfg.Push.WindowStartHour > 23 ||
		cfg.Push.WindowEndHour < 0 || cfg.Push.WindowEndHour > 23 {
		return nil, errors.New("push window hours must be in 0..23")
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Bot.BaseURL == "" {
		cfg.Bot.BaseURL = "https://api.telegram.org"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Push.DailyCap <= 0 {
		cfg.Push.DailyCap = 5
	}
	if cfg.Push.Cooldown <= 0 {
		cfg.Push.Cooldown = time.Hour
	}
	if cfg.Push.BatchSize <= 0 {
		cfg.Push.BatchSize = 1000
	}
	if cfg.Push.MaxBatches <= 0 {
		cfg.Push.MaxBatches = 50
	}
	if cfg.Push.LockTTL <= 0 {
		cfg.Push.LockTTL = 55 * time.Second
	}
	if cfg.Push.PromptDelay <= 0 {
		cfg.Push.PromptDelay = 15 * time.Minute
	}
	if cfg.Push.BoundsCacheTTL <= 0 {
		cfg.Push.BoundsCacheTTL = time.Hour
	}
	if cfg.Push.BatchCacheTTL <= 0 {
		cfg.Push.BatchCacheTTL = 10 * time.Minute
	}
	if cfg.App.ConnectURL == "" {
		cfg.App.ConnectURL = "https://example.com/connect"
	}
	if cfg.I18n.Default == "" {
		cfg.I18n.Default = "en"
	}
	if len(cfg.I18n.Supported) == 0 {
		cfg.I18n.Supported = []string{"en", "ru", "es"}
	}
	if cfg.Consumer.MemoryLimitMB <= 0 {
		cfg.Consumer.MemoryLimitMB = 350
	}
	if cfg.Consumer.MessagesLimit <= 0 {
		cfg.Consumer.MessagesLimit = 100
	}
}
