package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"grounded/credibility"
	"grounded/forum/domain"
	"grounded/identity"
)

// AvatarGlyph é o avatar fixo dos autores.
const AvatarGlyph = "👤"

// ErrInvalidInput: faltou topic, title ou content.
var ErrInvalidInput = errors.New("topic, title, and content are required")

// PostScorer é o pedaço do credibility.Scorer que o serviço usa.
type PostScorer interface {
	ScorePost(ctx context.Context, subj credibility.Subject) (credibility.PostVerdict, error)
}

// CreatePostInput é o corpo de POST /posts.
type CreatePostInput struct {
	Topic   string
	Title   string
	Content string
	Sources []string
}

// CreatePostResult traz o post gravado e o veredito cru do modelo.
type CreatePostResult struct {
	Post     domain.Post
	Analysis credibility.PostVerdict
}

type PostService struct {
	Store  domain.PostStore
	Scorer PostScorer
	Log    *slog.Logger

	// Now e NewID podem ser trocados em testes.
	Now   func() time.Time
	NewID func() string

	topics *keyedMutex
}

func NewPostService(store domain.PostStore, scorer PostScorer, log *slog.Logger) *PostService {
	if log == nil {
		log = slog.Default()
	}
	return &PostService{
		Store:  store,
		Scorer: scorer,
		Log:    log,
		Now:    time.Now,
		NewID:  uuid.NewString,
		topics: newKeyedMutex(),
	}
}

// CreatePost pontua o post, calcula a credibilidade do autor no tópico e grava.
//
// A pontuação roda fora do lock; média e append rodam sob o lock do tópico,
// então dois posts simultâneos do mesmo autor enxergam um ao outro.
func (s *PostService) CreatePost(ctx context.Context, actor identity.Actor, in CreatePostInput) (CreatePostResult, error) {
	topic := domain.NormalizeTopic(in.Topic)
	if topic == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return CreatePostResult{}, ErrInvalidInput
	}

	verdict, err := s.Scorer.ScorePost(ctx, credibility.Subject{
		Text:    in.Content,
		Kind:    credibility.KindPost,
		Title:   in.Title,
		Sources: in.Sources,
	})
	if err != nil {
		return CreatePostResult{}, fmt.Errorf("score post: %w", err)
	}

	unlock := s.topics.Lock(topic)
	defer unlock()

	prior, err := s.Store.List(ctx, topic)
	if err != nil {
		return CreatePostResult{}, fmt.Errorf("list posts: %w", err)
	}

	sources := in.Sources
	if sources == nil {
		sources = []string{}
	}
	post := domain.Post{
		ID:    s.NewID(),
		Topic: topic,
		Author: domain.Author{
			ID:               actor.ID,
			DisplayName:      actor.DisplayName(),
			AvatarGlyph:      AvatarGlyph,
			CredibilityScore: AverageCredibility(prior, actor.ID),
		},
		Title:      in.Title,
		Body:       in.Content,
		Verdict:    verdict.Verdict,
		Confidence: verdict.Confidence,
		CreatedAt:  s.Now(),
		Sources:    sources,
	}
	if err := s.Store.Append(ctx, topic, post); err != nil {
		return CreatePostResult{}, fmt.Errorf("append post: %w", err)
	}

	s.Log.Info("post created",
		"actor", actor.ID, "topic", topic, "post", post.ID,
		"verdict", post.Verdict, "confidence", post.Confidence,
		"credibility", post.Author.CredibilityScore, "fallback", verdict.Fallback)

	return CreatePostResult{Post: post, Analysis: verdict}, nil
}

// ListPosts devolve os posts do tópico, mais recente primeiro.
func (s *PostService) ListPosts(ctx context.Context, topic string) ([]domain.Post, error) {
	posts, err := s.Store.List(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}
