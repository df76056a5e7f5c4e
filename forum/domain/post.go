package domain

import (
	"context"
	"strings"
	"time"

	"grounded/credibility"
)

// Author é o autor como ele aparece no post. CredibilityScore é derivado
// (média das confianças anteriores do autor no tópico) e não é autoritativo.
type Author struct {
	ID               string
	DisplayName      string
	AvatarGlyph      string
	CredibilityScore int
	IsJournalist     bool
}

// Post é imutável depois de criado. Upvotes/Downvotes/CommentCount existem só
// para o cliente e começam em zero.
type Post struct {
	ID           string
	Topic        string
	Author       Author
	Title        string
	Body         string
	Verdict      credibility.Verdict
	Confidence   int
	Upvotes      int
	Downvotes    int
	CommentCount int
	CreatedAt    time.Time
	Sources      []string
}

// NormalizeTopic devolve a chave de armazenamento de um tópico.
func NormalizeTopic(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PostStore guarda posts por tópico normalizado, mais recente primeiro.
// Implementações normalizam a chave e carimbam Post.Topic em Append.
type PostStore interface {
	Append(ctx context.Context, topic string, post Post) error
	// List nunca devolve erro por tópico desconhecido: só lista vazia.
	List(ctx context.Context, topic string) ([]Post, error)
}
