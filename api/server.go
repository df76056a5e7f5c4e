package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"grounded/credibility"
	"grounded/forum/application"
	"grounded/forum/domain"
	"grounded/identity"
	"grounded/middleware/ratelimit"
	rlapp "grounded/middleware/ratelimit/application"
	rldomain "grounded/middleware/ratelimit/domain"
	rlinfra "grounded/middleware/ratelimit/infra"
)

// FactChecker é o que o handler de /fact-check precisa do credibility.Scorer.
type FactChecker interface {
	Score(ctx context.Context, subj credibility.Subject) (credibility.Result, error)
	Configured() bool
	ProviderName() string
	Model() string
}

// PostService é o que os handlers de /posts precisam do serviço do fórum.
type PostService interface {
	CreatePost(ctx context.Context, actor identity.Actor, in application.CreatePostInput) (application.CreatePostResult, error)
	ListPosts(ctx context.Context, topic string) ([]domain.Post, error)
}

// StatsReader é implementado por rlinfra.MemoryStatsStore e rlinfra.RedisStatsStore.
type StatsReader interface {
	Read(ctx context.Context) (rlinfra.StatsSnapshot, error)
}

var (
	_ StatsReader = (*rlinfra.MemoryStatsStore)(nil)
	_ StatsReader = (*rlinfra.RedisStatsStore)(nil)
	_ FactChecker = (*credibility.Scorer)(nil)
	_ PostService = (*application.PostService)(nil)
)

// Config reúne as dependências do servidor HTTP.
type Config struct {
	Scorer FactChecker
	Posts  PostService
	Auth   identity.Authenticator

	// Limits decide por classe (fact-check, post-create) e ator.
	Limits rlapp.Service
	// Stats recebe todos os eventos de rate limit; StatsView é o que /stats/ratelimit mostra.
	Stats     rldomain.StatsStore
	StatsView StatsReader

	AddRateLimitHeaders bool
	// Concurrency limita chamadas simultâneas ao modelo. Max <= 0 desliga.
	Concurrency ratelimit.ConcurrencyOptions

	Log *slog.Logger
	Now func() time.Time
}

type Server struct {
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
	router *mux.Router
}

func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Auth == nil {
		cfg.Auth = identity.HeaderAuthenticator{}
	}
	if cfg.Concurrency.Log == nil {
		cfg.Concurrency.Log = cfg.Log
	}
	if cfg.Concurrency.OnReject == nil {
		cfg.Concurrency.OnReject = func(w http.ResponseWriter, _ *http.Request, status int) {
			writeError(w, status, "Too many fact-checks in progress. Please try again shortly.", "")
		}
	}

	s := &Server{cfg: cfg, log: cfg.Log, now: cfg.Now}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverer)

	scoring := ratelimit.ConcurrencyMiddleware(s.cfg.Concurrency)

	r.Handle("/fact-check", s.protected(
		rldomain.ClassFactCheck,
		"Unauthorized - Please sign in to use AI fact-checking",
		"Rate limit exceeded. Please try again later.",
		scoring(http.HandlerFunc(s.factCheck)),
	)).Methods(http.MethodPost)

	r.HandleFunc("/posts", s.listPosts).Methods(http.MethodGet)
	r.Handle("/posts", s.protected(
		rldomain.ClassPostCreate,
		"Unauthorized - Please sign in to post",
		"Rate limit exceeded. Maximum 5 posts per hour.",
		scoring(http.HandlerFunc(s.createPost)),
	)).Methods(http.MethodPost)

	r.HandleFunc("/rundown/status", s.rundownStatus).Methods(http.MethodGet)
	r.HandleFunc("/stats/ratelimit", s.rateStats).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return r
}

// protected encadeia autenticação e rate limit da classe, nessa ordem.
func (s *Server) protected(class rldomain.Class, unauthorizedMsg, limitedMsg string, next http.Handler) http.Handler {
	limited := ratelimit.Middleware(ratelimit.Options{
		Service:             s.cfg.Limits,
		Class:               class,
		Stats:               s.cfg.Stats,
		KeyFn:               ratelimit.ContextKeyFunc(identity.ActorID, nil),
		AddRateLimitHeaders: s.cfg.AddRateLimitHeaders,
		OnReject: func(w http.ResponseWriter, r *http.Request, dec rldomain.Decision) {
			s.log.Info("rate limited",
				"class", class, "actor", identity.ActorID(r.Context()), "retry_after", dec.RetryAfter)
			writeError(w, http.StatusTooManyRequests, limitedMsg, "")
		},
	})

	authed := identity.Middleware(s.cfg.Auth, func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, http.StatusUnauthorized, unauthorizedMsg, "")
	})

	return authed(limited(next))
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "Internal server error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
