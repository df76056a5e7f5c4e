package infra

import (
	"context"
	"sync"
	"time"

	"grounded/middleware/ratelimit/domain"
)

// MemoryCounterStore guarda as janelas fixas em memória.
//
// O mapa só é travado para achar/criar a entrada; o Hit em si roda com o mutex
// da própria entrada, então atores diferentes não disputam o mesmo lock e duas
// requisições simultâneas do mesmo ator são serializadas.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

type counterEntry struct {
	mu      sync.Mutex
	entry   domain.Entry
	removed bool
}

type MemoryCounterOption func(*MemoryCounterStore)

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) MemoryCounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(opts ...MemoryCounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func counterKey(class domain.Class, key domain.Key) string {
	return string(class) + "|" + string(key)
}

// Hit implementa domain.CounterStore.
func (s *MemoryCounterStore) Hit(_ context.Context, class domain.Class, key domain.Key, w domain.Window) (domain.Decision, error) {
	k := counterKey(class, key)
	for {
		ent := s.entryFor(k)
		ent.mu.Lock()
		// o janitor pode ter removido a entrada entre entryFor e o Lock
		if ent.removed {
			ent.mu.Unlock()
			continue
		}

		now := s.now()
		next, ok := ent.entry.Hit(now, w)
		ent.entry = next
		ent.mu.Unlock()
		return domain.NewDecision(next, w, ok, now), nil
	}
}

// Peek devolve a entrada atual sem alterá-la.
func (s *MemoryCounterStore) Peek(class domain.Class, key domain.Key) (domain.Entry, bool) {
	s.mu.Lock()
	ent, ok := s.entries[counterKey(class, key)]
	s.mu.Unlock()
	if !ok {
		return domain.Entry{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.entry, true
}

func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryCounterStore) entryFor(k string) *counterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[k]; ok {
		return ent
	}
	ent := &counterEntry{}
	s.entries[k] = ent
	return ent
}

// Cleanup remove entradas cuja janela já expirou. Uma entrada expirada seria
// reiniciada no próximo Hit de qualquer forma, então remover não muda o resultado.
func (s *MemoryCounterStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		ent.mu.Lock()
		if !ent.entry.ResetAt.IsZero() && now.After(ent.entry.ResetAt) {
			ent.removed = true
			delete(s.entries, k)
		}
		ent.mu.Unlock()
	}
}
