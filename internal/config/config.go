package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Stream store backends.
const (
	StreamStoreNone   = ""
	StreamStoreMemory = "memory"
	StreamStoreRedis  = "redis"
	StreamStoreBolt   = "bolt"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`

	// GeminiAPIKeys is a comma-separated list; each key becomes one backend
	// of the fallback chain, in order.
	GeminiAPIKeys  string `mapstructure:"GEMINI_API_KEYS"`
	GeminiBaseURL  string `mapstructure:"GEMINI_BASE_URL"`
	ChatModel      string `mapstructure:"CHAT_MODEL"`
	ReasoningModel string `mapstructure:"REASONING_MODEL"`
	TitleModel     string `mapstructure:"TITLE_MODEL"`

	QuotaLockDuration time.Duration `mapstructure:"QUOTA_LOCK_DURATION"`
	MaxHistoryTokens  int           `mapstructure:"MAX_HISTORY_TOKENS"`
	TokenEncoding     string        `mapstructure:"TOKEN_ENCODING"`

	JWTSecret                string `mapstructure:"JWT_SECRET"`
	GuestMaxMessagesPerDay   int    `mapstructure:"GUEST_MAX_MESSAGES_PER_DAY"`
	RegularMaxMessagesPerDay int    `mapstructure:"REGULAR_MAX_MESSAGES_PER_DAY"`

	StreamStore          string        `mapstructure:"STREAM_STORE"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	BoltPath             string        `mapstructure:"BOLT_PATH"`
	StreamTTL            time.Duration `mapstructure:"STREAM_TTL"`
	StreamMaxDuration    time.Duration `mapstructure:"STREAM_MAX_DURATION"`
	StreamPollInterval   time.Duration `mapstructure:"STREAM_POLL_INTERVAL"`
	SSEHeartbeatInterval time.Duration `mapstructure:"SSE_HEARTBEAT_INTERVAL"`

	WeatherAPIURL string `mapstructure:"WEATHER_API_URL"`

	// ConfigFile is the .env file the configuration was read from, if any.
	ConfigFile string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8000)
	v.SetDefault("DATABASE_PATH", "./data/bible-chat.db")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GEMINI_API_KEYS", "")
	v.SetDefault("GEMINI_BASE_URL", "")
	v.SetDefault("CHAT_MODEL", "gemini-2.5-flash")
	v.SetDefault("REASONING_MODEL", "gemini-2.5-flash")
	v.SetDefault("TITLE_MODEL", "gemini-2.5-flash")

	v.SetDefault("QUOTA_LOCK_DURATION", time.Hour)
	v.SetDefault("MAX_HISTORY_TOKENS", 24000)
	v.SetDefault("TOKEN_ENCODING", "cl100k_base")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("GUEST_MAX_MESSAGES_PER_DAY", 20)
	v.SetDefault("REGULAR_MAX_MESSAGES_PER_DAY", 100)

	v.SetDefault("STREAM_STORE", StreamStoreNone)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("BOLT_PATH", "./data/streams.bolt")
	v.SetDefault("STREAM_TTL", 24*time.Hour)
	v.SetDefault("STREAM_MAX_DURATION", 60*time.Second)
	v.SetDefault("STREAM_POLL_INTERVAL", 100*time.Millisecond)
	v.SetDefault("SSE_HEARTBEAT_INTERVAL", 15*time.Second)

	v.SetDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast")
}

// LoadConfig reads configuration from a .env file in the working directory
// (or ./backend) and the environment. Environment variables win.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	if len(paths) == 0 {
		paths = []string{".", "./backend"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.StreamStore = strings.ToLower(strings.TrimSpace(cfg.StreamStore))

	return &cfg, nil
}

// APIKeys returns the non-empty entries of GeminiAPIKeys in order.
func (c *Config) APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.GeminiAPIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if len(c.APIKeys()) == 0 {
		errs = append(errs, errors.New("GEMINI_API_KEYS must contain at least one key"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StreamStore {
	case StreamStoreNone, StreamStoreMemory, StreamStoreBolt:
	case StreamStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STREAM_STORE is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STREAM_STORE %q", c.StreamStore))
	}
	return errors.Join(errs...)
}
