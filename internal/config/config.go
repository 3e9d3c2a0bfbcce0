package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env        string `mapstructure:"APP_ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_FILE"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	DataDir        string `mapstructure:"DATA_DIR"`
	PostgresDSN    string `mapstructure:"POSTGRES_DSN"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`

	// Push intents go to a Redis stream; an empty address disables push.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	PushStream     string `mapstructure:"PUSH_STREAM"`
	VAPIDPublicKey string `mapstructure:"VAPID_PUBLIC_KEY"`

	SendGridAPIKey  string `mapstructure:"SENDGRID_API_KEY"`
	SendGridBaseURL string `mapstructure:"SENDGRID_BASE_URL"`
	EmailFrom       string `mapstructure:"EMAIL_FROM"`
	EmailFromName   string `mapstructure:"EMAIL_FROM_NAME"`

	LLMAPIKey  string `mapstructure:"LLM_API_KEY"`
	LLMBaseURL string `mapstructure:"LLM_BASE_URL"`
	LLMModel   string `mapstructure:"LLM_MODEL"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`
	DevToken    string `mapstructure:"DEV_TOKEN"`

	CrisisKeywordsFile  string `mapstructure:"CRISIS_KEYWORDS_FILE"`
	ContentFile         string `mapstructure:"CONTENT_FILE"`
	SeedContent         bool   `mapstructure:"SEED_CONTENT"`
	AnalyticsMaxRecords int    `mapstructure:"ANALYTICS_MAX_RECORDS"`
	AlertConcurrency    int    `mapstructure:"ALERT_CONCURRENCY"`
	CORSOrigins         string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]interface{}{
	"APP_ENV":               "development",
	"SERVER_PORT":           "8088",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"LOG_FILE":              "",
	"STORAGE_BACKEND":       "file",
	"DATA_DIR":              "data",
	"POSTGRES_DSN":          "",
	"MONGO_URI":             "",
	"MONGO_DATABASE":        "mentl2",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"PUSH_STREAM":           "mentl2:push",
	"VAPID_PUBLIC_KEY":      "",
	"SENDGRID_API_KEY":      "",
	"SENDGRID_BASE_URL":     "https://api.sendgrid.com",
	"EMAIL_FROM":            "alerts@mentl2.app",
	"EMAIL_FROM_NAME":       "Mentl2",
	"LLM_API_KEY":           "",
	"LLM_BASE_URL":          "",
	"LLM_MODEL":             "gpt-4o-mini",
	"JWT_SECRET":            "",
	"JWT_TTL_HOURS":         24 * 7,
	"DEV_TOKEN":             "",
	"CRISIS_KEYWORDS_FILE":  "",
	"CONTENT_FILE":          "",
	"SEED_CONTENT":          true,
	"ANALYTICS_MAX_RECORDS": 1000,
	"ALERT_CONCURRENCY":     8,
	"CORS_ORIGINS":          "*",
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads ./.env and the environment once. It panics on invalid configuration.
func Load() *Config {
	once.Do(func() {
		c, err := LoadFrom(".")
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

// LoadFrom reads path/.env if present; environment variables take precedence.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.StorageBackend {
	case "file":
		if c.DataDir == "" {
			return errors.New("file storage requires DATA_DIR to be set")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, postgres, mongo")
	}
	if c.Env != "development" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.Env == "production" && c.DevToken != "" {
		return errors.New("DEV_TOKEN must not be set in production")
	}
	if c.AnalyticsMaxRecords <= 0 {
		return errors.New("ANALYTICS_MAX_RECORDS must be positive")
	}
	if c.AlertConcurrency <= 0 {
		return errors.New("ALERT_CONCURRENCY must be positive")
	}
	if c.JWTTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	return nil
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
