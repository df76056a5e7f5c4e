package infra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registra o driver "sqlite"

	"grounded/credibility"
	"grounded/forum/domain"
	"grounded/forum/infra/migrations"
)

// SQLitePostStore persiste os posts num arquivo SQLite. A ordem "mais recente
// primeiro" vem da coluna seq (autoincremento), não do relógio.
type SQLitePostStore struct {
	db *sql.DB
}

var _ domain.PostStore = (*SQLitePostStore)(nil)

// NewSQLitePostStore abre o banco em dsn e aplica as migrações.
// dsn ":memory:" é aceito (testes).
func NewSQLitePostStore(dsn string) (*SQLitePostStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// uma conexão só: ":memory:" é por conexão e o SQLite serializa escrita de qualquer jeito
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLitePostStore{db: db}, nil
}

func (s *SQLitePostStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePostStore) Append(ctx context.Context, topic string, post domain.Post) error {
	post.Topic = domain.NormalizeTopic(topic)
	sources, err := encodeSources(post.Sources)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (id, topic, author_id, author_name, author_avatar, author_score, is_journalist,
		                    title, body, verdict, confidence, upvotes, downvotes, comment_count, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Topic, post.Author.ID, post.Author.DisplayName, post.Author.AvatarGlyph,
		post.Author.CredibilityScore, boolToInt(post.Author.IsJournalist),
		post.Title, post.Body, string(post.Verdict), post.Confidence,
		post.Upvotes, post.Downvotes, post.CommentCount, sources,
		post.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *SQLitePostStore) List(ctx context.Context, topic string) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, author_id, author_name, author_avatar, author_score, is_journalist,
		        title, body, verdict, confidence, upvotes, downvotes, comment_count, sources, created_at
		 FROM posts WHERE topic = ? ORDER BY seq DESC`,
		domain.NormalizeTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []domain.Post{}
	for rows.Next() {
		var (
			p            domain.Post
			isJournalist int
			verdict      string
			sources      string
			createdAt    string
		)
		if err := rows.Scan(&p.ID, &p.Topic, &p.Author.ID, &p.Author.DisplayName, &p.Author.AvatarGlyph,
			&p.Author.CredibilityScore, &isJournalist, &p.Title, &p.Body, &verdict, &p.Confidence,
			&p.Upvotes, &p.Downvotes, &p.CommentCount, &sources, &createdAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Author.IsJournalist = isJournalist != 0
		p.Verdict = credibility.Verdict(verdict)
		if p.Sources, err = decodeSources(sources); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func encodeSources(sources []string) (string, error) {
	if sources == nil {
		sources = []string{}
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("encode sources: %w", err)
	}
	return string(b), nil
}

func decodeSources(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
