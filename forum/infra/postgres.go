package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"grounded/credibility"
	"grounded/forum/domain"
)

// PostgresPostStore persiste os posts no Postgres. O schema é criado na subida.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

var _ domain.PostStore = (*PostgresPostStore)(nil)

func NewPostgresPostStore(ctx context.Context, connStr string) (*PostgresPostStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresPostStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresPostStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			seq           BIGSERIAL PRIMARY KEY,
			id            TEXT NOT NULL UNIQUE,
			topic         TEXT NOT NULL,
			author_id     TEXT NOT NULL,
			author_name   TEXT NOT NULL,
			author_avatar TEXT NOT NULL,
			author_score  INT NOT NULL,
			is_journalist BOOLEAN NOT NULL DEFAULT FALSE,
			title         TEXT NOT NULL,
			body          TEXT NOT NULL,
			verdict       TEXT NOT NULL,
			confidence    INT NOT NULL,
			upvotes       INT NOT NULL DEFAULT 0,
			downvotes     INT NOT NULL DEFAULT 0,
			comment_count INT NOT NULL DEFAULT 0,
			sources       TEXT[] NOT NULL DEFAULT '{}',
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_topic_seq ON posts (topic, seq DESC)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresPostStore) Close() {
	s.pool.Close()
}

func (s *PostgresPostStore) Append(ctx context.Context, topic string, post domain.Post) error {
	post.Topic = domain.NormalizeTopic(topic)
	sources := post.Sources
	if sources == nil {
		sources = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (id, topic, author_id, author_name, author_avatar, author_score, is_journalist,
		                    title, body, verdict, confidence, upvotes, downvotes, comment_count, sources, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		post.ID, post.Topic, post.Author.ID, post.Author.DisplayName, post.Author.AvatarGlyph,
		post.Author.CredibilityScore, post.Author.IsJournalist,
		post.Title, post.Body, string(post.Verdict), post.Confidence,
		post.Upvotes, post.Downvotes, post.CommentCount, sources, post.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostgresPostStore) List(ctx context.Context, topic string) ([]domain.Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, topic, author_id, author_name, author_avatar, author_score, is_journalist,
		        title, body, verdict, confidence, upvotes, downvotes, comment_count, sources, created_at
		 FROM posts WHERE topic = $1 ORDER BY seq DESC`,
		domain.NormalizeTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var (
			p       domain.Post
			verdict string
		)
		if err := rows.Scan(&p.ID, &p.Topic, &p.Author.ID, &p.Author.DisplayName, &p.Author.AvatarGlyph,
			&p.Author.CredibilityScore, &p.Author.IsJournalist, &p.Title, &p.Body, &verdict, &p.Confidence,
			&p.Upvotes, &p.Downvotes, &p.CommentCount, &p.Sources, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Verdict = credibility.Verdict(verdict)
		if p.Sources == nil {
			p.Sources = []string{}
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}
