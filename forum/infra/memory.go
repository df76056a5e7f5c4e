package infra

import (
	"context"
	"sync"

	"grounded/forum/domain"
)

// MemoryPostStore guarda os posts em memória; perde tudo quando o processo reinicia.
//
// Cada tópico tem seu próprio log e seu próprio mutex, então appends em tópicos
// diferentes não disputam lock.
type MemoryPostStore struct {
	mu     sync.Mutex
	topics map[string]*topicLog
}

type topicLog struct {
	mu    sync.RWMutex
	posts []domain.Post // mais recente primeiro
}

var _ domain.PostStore = (*MemoryPostStore)(nil)

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{topics: make(map[string]*topicLog)}
}

func (s *MemoryPostStore) Append(_ context.Context, topic string, post domain.Post) error {
	key := domain.NormalizeTopic(topic)
	post.Topic = key
	post.Sources = cloneStrings(post.Sources)

	l := s.logFor(key, true)
	l.mu.Lock()
	defer l.mu.Unlock()

	l.posts = append(l.posts, domain.Post{})
	copy(l.posts[1:], l.posts)
	l.posts[0] = post
	return nil
}

func (s *MemoryPostStore) List(_ context.Context, topic string) ([]domain.Post, error) {
	l := s.logFor(domain.NormalizeTopic(topic), false)
	if l == nil {
		return []domain.Post{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Post, len(l.posts))
	for i, p := range l.posts {
		p.Sources = cloneStrings(p.Sources)
		out[i] = p
	}
	return out, nil
}

// Topics devolve quantos tópicos têm ao menos um post.
func (s *MemoryPostStore) Topics() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics)
}

func (s *MemoryPostStore) logFor(key string, create bool) *topicLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.topics[key]
	if !ok && create {
		l = &topicLog{}
		s.topics[key] = l
	}
	return l
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
