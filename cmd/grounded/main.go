package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"grounded/api"
	"grounded/credibility"
	"grounded/credibility/providers"
	"grounded/forum/application"
	"grounded/forum/domain"
	"grounded/forum/infra"
	"grounded/identity"
	"grounded/middleware/ratelimit"
	rlapp "grounded/middleware/ratelimit/application"
	rldomain "grounded/middleware/ratelimit/domain"
	rlinfra "grounded/middleware/ratelimit/infra"
)

func main() {
	// .env é opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	cfg, err := readConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		log.Warn("no LLM provider configured; /fact-check and POST /posts will fail", "provider", cfg.LLMProvider)
	}

	buckets := rlinfra.NewBucketStore(cfg.ScorerRPS, cfg.ScorerBurst)
	scorer := credibility.New(provider,
		credibility.WithThrottle(buckets),
		credibility.WithTimeout(cfg.ScorerTimeout),
		credibility.WithLogger(log.With("component", "scorer")),
	)

	var rdb *redis.Client
	if cfg.usesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	var (
		counters   rldomain.CounterStore
		memCounter *rlinfra.MemoryCounterStore
	)
	if cfg.RateBackend == "redis" {
		counters = rlinfra.NewRedisCounterStore(rdb, rlinfra.WithCounterPrefix(cfg.RedisPrefix+":ratelimit:window"))
	} else {
		memCounter = rlinfra.NewMemoryCounterStore()
		counters = memCounter
	}

	memStats := rlinfra.NewMemoryStatsStore()
	stats := rlinfra.MultiStatsStore{memStats}
	var statsView api.StatsReader = memStats
	if cfg.RateStatsRedis {
		redisStats := rlinfra.NewRedisStatsStore(rdb, rlinfra.WithStatsPrefix(cfg.RedisPrefix+":ratelimit:stats"))
		stats = append(stats, redisStats)
		statsView = redisStats
	}

	posts, closeStore, err := newPostStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("post store: %w", err)
	}
	defer closeStore()

	warnOpenAuth(log, cfg.AuthSharedSecret)

	srvHandler := api.NewServer(api.Config{
		Scorer: scorer,
		Posts:  application.NewPostService(posts, scorer, log.With("component", "posts")),
		Auth:   identity.HeaderAuthenticator{Secret: cfg.AuthSharedSecret},
		Limits: rlapp.Service{
			Store: counters,
			Windows: map[rldomain.Class]rldomain.Window{
				rldomain.ClassFactCheck:  {Limit: cfg.FactCheckLimit, Duration: cfg.FactCheckWindow},
				rldomain.ClassPostCreate: {Limit: cfg.PostLimit, Duration: cfg.PostWindow},
			},
			Log: log.With("component", "ratelimit"),
		},
		Stats:               stats,
		StatsView:           statsView,
		AddRateLimitHeaders: cfg.AddHeaders,
		Concurrency: ratelimit.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.ConcurrencyTimeout,
		},
		Log: log.With("component", "api"),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srvHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       90 * time.Second,
	}

	log.Info("grounded listening", "addr", cfg.ListenAddr)
	log.Info("scorer", "provider", scorer.ProviderName(), "model", scorer.Model(),
		"timeout", cfg.ScorerTimeout, "rps", buckets.RPS(), "burst", buckets.Burst())
	log.Info("rate", "backend", cfg.RateBackend,
		"factcheck", fmt.Sprintf("%d/%s", cfg.FactCheckLimit, cfg.FactCheckWindow),
		"post", fmt.Sprintf("%d/%s", cfg.PostLimit, cfg.PostWindow),
		"stats_redis", cfg.RateStatsRedis)
	log.Info("posts", "store", cfg.PostStore)
	log.Info("concurrency", "max", cfg.ConcurrencyMax, "acquire_timeout", cfg.ConcurrencyTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		cleaners := []rlinfra.Cleaner{buckets}
		if memCounter != nil {
			cleaners = append(cleaners, memCounter)
		}
		return rlinfra.RunJanitor(gctx, cfg.JanitorEvery, cleaners...)
	})
	return g.Wait()
}

// warnOpenAuth avisa quando qualquer cliente pode se passar por outro ator
// (e fugir do limite por ator) só mandando X-User-Id.
func warnOpenAuth(log *slog.Logger, secret string) {
	if secret == "" {
		log.Warn("AUTH_SHARED_SECRET is empty; X-User-* headers are trusted from any client")
	}
}

// writeTimeout cobre a espera por vaga mais a chamada ao modelo (que já inclui o
// throttle). Sem timeout no scorer não há como limitar a escrita: devolve 0.
func writeTimeout(cfg config) time.Duration {
	if cfg.ScorerTimeout <= 0 {
		return 0
	}
	return cfg.ConcurrencyTimeout + cfg.ScorerTimeout + 30*time.Second
}

// newProvider devolve nil (sem erro) quando o provedor escolhido não tem chave:
// o servidor sobe e as rotas de pontuação respondem 500.
func newProvider(ctx context.Context, cfg config) (credibility.Provider, error) {
	switch cfg.LLMProvider {
	case providers.NameGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		return providers.NewGemini(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case providers.NameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	case providers.NameAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return providers.NewAnthropic(cfg.AnthropicAPIKey, "", cfg.LLMModel)
	case providers.NameStatic:
		return providers.NewStatic(providers.DemoPostResponse), nil
	}
	return nil, nil
}

func newPostStore(ctx context.Context, cfg config) (domain.PostStore, func(), error) {
	switch cfg.PostStore {
	case "sqlite":
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		s, err := infra.NewSQLitePostStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := infra.NewPostgresPostStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return infra.NewMemoryPostStore(), func() {}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
