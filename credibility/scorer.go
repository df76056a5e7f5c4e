package credibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Provider é o serviço externo de geração de texto: recebe o prompt e devolve
// texto livre, sem garantia de estrutura.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Throttle segura chamadas de saída por modelo (ver ratelimit/infra.BucketStore).
type Throttle interface {
	Wait(ctx context.Context, key string) error
}

type Scorer struct {
	provider Provider
	throttle Throttle
	timeout  time.Duration
	log      *slog.Logger
}

type Option func(*Scorer)

func WithThrottle(t Throttle) Option {
	return func(s *Scorer) { s.throttle = t }
}

// WithTimeout limita cada chamada ao provedor. 0 = sem limite.
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.log = l }
}

// New cria o Scorer. Provider nil é aceito: toda chamada devolve ErrNotConfigured.
func New(p Provider, opts ...Option) *Scorer {
	s := &Scorer{provider: p, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scorer) Configured() bool { return s != nil && s.provider != nil }

func (s *Scorer) ProviderName() string {
	if !s.Configured() {
		return ""
	}
	return s.provider.Name()
}

func (s *Scorer) Model() string {
	if !s.Configured() {
		return ""
	}
	return s.provider.Model()
}

// Score é o contrato genérico: despacha pelo Kind do Subject.
func (s *Scorer) Score(ctx context.Context, subj Subject) (Result, error) {
	if subj.Kind == KindTopic {
		r, err := s.ScoreTopic(ctx, subj.Text)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindTopic, Topic: &r}, nil
	}
	v, err := s.ScorePost(ctx, subj)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindPost, Post: &v}, nil
}

// ScorePost pontua um post. Só falha se o provedor falhar; saída malformada
// vira o veredito de fallback.
func (s *Scorer) ScorePost(ctx context.Context, subj Subject) (PostVerdict, error) {
	subj.Kind = KindPost
	text, err := s.generate(ctx, BuildPrompt(subj))
	if err != nil {
		return PostVerdict{}, err
	}

	v := ParsePostVerdict(text)
	if v.Fallback {
		s.log.Warn("model returned invalid post verdict, using fallback",
			"provider", s.provider.Name(), "model", s.provider.Model(), "raw", truncate(text, 500))
	}
	return v, nil
}

// ScoreTopic gera o rundown de um tópico. Saída malformada é erro (*MalformedError).
func (s *Scorer) ScoreTopic(ctx context.Context, topic string) (TopicRundown, error) {
	text, err := s.generate(ctx, BuildPrompt(Subject{Text: topic, Kind: KindTopic}))
	if err != nil {
		return TopicRundown{}, err
	}

	r, err := ParseTopicRundown(text)
	if err != nil {
		s.log.Error("model returned invalid topic rundown",
			"provider", s.provider.Name(), "model", s.provider.Model(), "raw", truncate(text, 500))
		return TopicRundown{}, err
	}
	return r, nil
}

func (s *Scorer) generate(ctx context.Context, prompt string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.throttle != nil {
		if err := s.throttle.Wait(ctx, s.provider.Model()); err != nil {
			return "", fmt.Errorf("%w: throttle: %w", ErrUpstreamUnavailable, err)
		}
	}

	start := time.Now()
	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	s.log.Debug("model call finished",
		"provider", s.provider.Name(), "model", s.provider.Model(), "elapsed", time.Since(start))
	return text, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
