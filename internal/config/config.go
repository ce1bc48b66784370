package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Candidate source kinds.
const (
	SourceYear = "year"
	SourcePool = "pool"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"` // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`   // Telegram API token loaded from environment
	TMDB             TMDB    `mapstructure:"tmdb"`
	Quiz             Quiz    `mapstructure:"quiz"`
	Pool             Pool    `mapstructure:"pool"`
	Session          Session `mapstructure:"session"`
}

// TMDB contains catalog API parameters.
type TMDB struct {
	APIKey       string        `mapstructure:"-"`              // API key loaded from environment
	BaseURL      string        `mapstructure:"base_url"`       // REST API root
	ImageBaseURL string        `mapstructure:"image_base_url"` // image CDN root, width and path are appended
	ImageHost    string        `mapstructure:"image_host"`     // the only host images may be served from
	Language     string        `mapstructure:"language"`       // language of discover results
	Timeout      time.Duration `mapstructure:"timeout"`        // per-request timeout
}

// Quiz contains round assembly and feedback parameters.
type Quiz struct {
	MinYear                int           `mapstructure:"min_year"`
	MaxYear                int           `mapstructure:"max_year"`
	MaxAttempts            int           `mapstructure:"max_attempts"`             // total candidate draws per round
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"` // failed draws in a row before giving up
	ParallelDraws          int           `mapstructure:"parallel_draws"`           // distractor draws in flight at once
	Source                 string        `mapstructure:"source"`                   // "year" or "pool"
	AutoAdvance            time.Duration `mapstructure:"auto_advance"`             // 0 means wait for the user
}

// Pool contains prefetched candidate pool parameters.
type Pool struct {
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	Years           int    `mapstructure:"years"` // random years fetched per refresh
}

// Session contains in-memory session lifetime parameters.
type Session struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Local .env is optional, real environment wins.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("tmdb_api_key", "TMDB_API_KEY", "API_KEY")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}

	cfg.TMDB.APIKey = v.GetString("tmdb_api_key")
	if cfg.TMDB.APIKey == "" {
		return nil, fmt.Errorf("%w: TMDB_API_KEY", ErrMissingEnvironmentVariables)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.image_host", "image.tmdb.org")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout", "10s")

	v.SetDefault("quiz.min_year", 1980)
	v.SetDefault("quiz.max_year", 2024)
	v.SetDefault("quiz.max_attempts", 12)
	v.SetDefault("quiz.max_consecutive_failures", 3)
	v.SetDefault("quiz.parallel_draws", 3)
	v.SetDefault("quiz.source", SourceYear)
	v.SetDefault("quiz.auto_advance", "0s")

	v.SetDefault("pool.refresh_schedule", "@every 30m")
	v.SetDefault("pool.years", 5)

	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.sweep_schedule", "@every 10m")
}

// Validate checks value ranges that would otherwise break round assembly,
// catalog requests or session sweeping.
func (c *Config) Validate() error {
	switch {
	case c.Quiz.MinYear <= 0 || c.Quiz.MaxYear < c.Quiz.MinYear:
		return fmt.Errorf("%w: year range %d..%d", ErrInvalidConfig, c.Quiz.MinYear, c.Quiz.MaxYear)
	case c.Quiz.MaxAttempts < 4:
		return fmt.Errorf("%w: quiz.max_attempts must be at least 4", ErrInvalidConfig)
	case c.Quiz.MaxConsecutiveFailures < 1:
		return fmt.Errorf("%w: quiz.max_consecutive_failures must be positive", ErrInvalidConfig)
	case c.Quiz.ParallelDraws < 1:
		return fmt.Errorf("%w: quiz.parallel_draws must be positive", ErrInvalidConfig)
	case c.Quiz.Source != SourceYear && c.Quiz.Source != SourcePool:
		return fmt.Errorf("%w: unknown quiz.source %q", ErrInvalidConfig, c.Quiz.Source)
	case c.Pool.Years < 1:
		return fmt.Errorf("%w: pool.years must be positive", ErrInvalidConfig)
	case c.TMDB.Timeout <= 0:
		return fmt.Errorf("%w: tmdb.timeout must be positive", ErrInvalidConfig)
	case c.Session.IdleTTL <= 0:
		return fmt.Errorf("%w: session.idle_ttl must be positive", ErrInvalidConfig)
	}

	return nil
}
