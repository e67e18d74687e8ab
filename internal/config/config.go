package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// Duration accepts "30m"-style strings (or raw nanosecond ints) in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // polling workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int      `yaml:"port"`
	JWTSecret string   `yaml:"jwt_secret"`
	TokenTTL  Duration `yaml:"token_ttl"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	OpenAIKey       string `yaml:"openai_key"`
	DefaultModel    string `yaml:"default_model"`
	DefaultProvider string `yaml:"default_provider"` // gemini | openai
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

type SessionConfig struct {
	Timeout       Duration `yaml:"timeout"`        // sliding-window expiry
	SweepInterval Duration `yaml:"sweep_interval"` // background eviction period
}

type RolesConfig struct {
	File string `yaml:"file"` // path to the role configuration document
}

type RateLimitConfig struct {
	Enabled bool     `yaml:"enabled"`
	Limit   int      `yaml:"limit"`
	Window  Duration `yaml:"window"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Session   SessionConfig   `yaml:"session"`
	Roles     RolesConfig     `yaml:"roles"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.0-flash"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "gemini"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.Session.Timeout <= 0 {
		cfg.Session.Timeout = Duration(30 * time.Minute)
	}
	if cfg.Session.SweepInterval <= 0 {
		cfg.Session.SweepInterval = Duration(5 * time.Minute)
	}
	if cfg.Roles.File == "" {
		cfg.Roles.File = "roles.json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = Duration(30 * time.Minute)
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 20
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = Duration(time.Minute)
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	// Dev mode may run without a provider key; main falls back to the noop
	// AI adapter.
	if cfg.AI.GeminiKey == "" && cfg.AI.OpenAIKey == "" && !dev {
		return nil, errors.New("ai.gemini_key or ai.openai_key is required")
	}
	if cfg.RateLimit.Enabled && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when rate_limit.enabled")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
