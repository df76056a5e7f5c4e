package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// config é montado em camadas: padrões, depois o arquivo TOML de CONFIG_FILE
// (se houver), depois as variáveis de ambiente.
type config struct {
	ListenAddr string `toml:"listen_addr"`
	LogLevel   string `toml:"log_level"`

	LLMProvider     string        `toml:"llm_provider"`
	LLMModel        string        `toml:"llm_model"`
	GeminiAPIKey    string        `toml:"gemini_api_key"`
	OpenAIAPIKey    string        `toml:"openai_api_key"`
	OpenAIBaseURL   string        `toml:"openai_base_url"`
	AnthropicAPIKey string        `toml:"anthropic_api_key"`
	ScorerTimeout   time.Duration `toml:"scorer_timeout"`
	ScorerRPS       float64       `toml:"scorer_rps"`
	ScorerBurst     int           `toml:"scorer_burst"`

	FactCheckLimit  int           `toml:"factcheck_limit"`
	FactCheckWindow time.Duration `toml:"factcheck_window"`
	PostLimit       int           `toml:"post_limit"`
	PostWindow      time.Duration `toml:"post_window"`
	RateBackend     string        `toml:"rate_backend"`
	AddHeaders      bool          `toml:"add_ratelimit_headers"`
	JanitorEvery    time.Duration `toml:"janitor_every"`

	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	RedisPrefix    string `toml:"redis_prefix"`
	RateStatsRedis bool   `toml:"rate_stats_redis"`

	ConcurrencyMax     int           `toml:"concurrency_max"`
	ConcurrencyTimeout time.Duration `toml:"concurrency_timeout"`

	PostStore    string `toml:"post_store"`
	DatabasePath string `toml:"database_path"`
	DatabaseURL  string `toml:"database_url"`

	AuthSharedSecret string `toml:"auth_shared_secret"`
}

func defaultConfig() config {
	return config{
		ListenAddr:      ":8080",
		LogLevel:        "info",
		LLMProvider:     "gemini",
		ScorerRPS:       1,
		ScorerBurst:     5,
		FactCheckLimit:  10,
		FactCheckWindow: time.Hour,
		PostLimit:       5,
		PostWindow:      time.Hour,
		RateBackend:     "memory",
		JanitorEvery:    5 * time.Minute,
		RedisPrefix:     "grounded",
		ConcurrencyMax:  20,
		PostStore:       "memory",
		DatabasePath:    "./data/grounded.db",
	}
}

func readConfig() (config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.LLMProvider = strings.ToLower(getenvDefault("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMModel = getenvDefault("LLM_MODEL", cfg.LLMModel)
	cfg.GeminiAPIKey = getenvDefault("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.OpenAIAPIKey = getenvDefault("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getenvDefault("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.AnthropicAPIKey = getenvDefault("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.ScorerTimeout = getenvDurationDefault("SCORER_TIMEOUT", cfg.ScorerTimeout)
	cfg.ScorerRPS = getenvFloatDefault("SCORER_RPS", cfg.ScorerRPS)
	cfg.ScorerBurst = getenvIntDefault("SCORER_BURST", cfg.ScorerBurst)

	cfg.FactCheckLimit = getenvIntDefault("FACTCHECK_LIMIT", cfg.FactCheckLimit)
	cfg.FactCheckWindow = getenvDurationDefault("FACTCHECK_WINDOW", cfg.FactCheckWindow)
	cfg.PostLimit = getenvIntDefault("POST_LIMIT", cfg.PostLimit)
	cfg.PostWindow = getenvDurationDefault("POST_WINDOW", cfg.PostWindow)
	cfg.RateBackend = strings.ToLower(getenvDefault("RATE_BACKEND", cfg.RateBackend))
	cfg.AddHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", cfg.AddHeaders)
	cfg.JanitorEvery = getenvDurationDefault("JANITOR_EVERY", cfg.JanitorEvery)

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvIntDefault("REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = getenvDefault("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.RateStatsRedis = getenvBoolDefault("RATE_STATS_REDIS", cfg.RateStatsRedis)

	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", cfg.ConcurrencyMax)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.ConcurrencyTimeout)

	cfg.PostStore = strings.ToLower(getenvDefault("POST_STORE", cfg.PostStore))
	cfg.DatabasePath = getenvDefault("DATABASE_PATH", cfg.DatabasePath)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)

	cfg.AuthSharedSecret = getenvDefault("AUTH_SHARED_SECRET", cfg.AuthSharedSecret)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.LLMProvider {
	case "gemini", "openai", "anthropic", "static", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider)
	}
	switch c.RateBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_BACKEND %q is not supported", c.RateBackend)
	}
	switch c.PostStore {
	case "memory", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when POST_STORE=postgres")
		}
	default:
		return fmt.Errorf("POST_STORE %q is not supported", c.PostStore)
	}

	if c.usesRedis() && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when RATE_BACKEND=redis or RATE_STATS_REDIS=true")
	}
	if c.FactCheckLimit <= 0 || c.PostLimit <= 0 {
		return errors.New("FACTCHECK_LIMIT and POST_LIMIT must be > 0")
	}
	if c.FactCheckWindow <= 0 || c.PostWindow <= 0 {
		return errors.New("FACTCHECK_WINDOW and POST_WINDOW must be > 0")
	}
	if c.ScorerRPS <= 0 {
		return errors.New("SCORER_RPS must be > 0")
	}
	if c.ScorerBurst <= 0 {
		return errors.New("SCORER_BURST must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return nil
}

func (c config) usesRedis() bool {
	return c.RateBackend == "redis" || c.RateStatsRedis
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
