package infra

import (
	"context"
	"sync"

	"grounded/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore acumula decisões em memória, por classe e por rota.
// É o que alimenta GET /stats/ratelimit.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byClass map[domain.Class]Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

// StatsSnapshot é uma cópia consistente dos contadores.
type StatsSnapshot struct {
	Total   Counters                  `json:"total"`
	ByClass map[domain.Class]Counters `json:"byClass"`
	ByRoute map[string]Counters       `json:"byRoute"`
	ByKey   map[string]Counters       `json:"byKey,omitempty"`
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byClass: make(map[domain.Class]Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)

	c := s.byClass[ev.Class]
	c.add(ev.Allowed)
	s.byClass[ev.Class] = c

	r := s.byRoute[route]
	r.add(ev.Allowed)
	s.byRoute[route] = r

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Allowed)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatsSnapshot{
		Total:   s.total,
		ByClass: make(map[domain.Class]Counters, len(s.byClass)),
		ByRoute: make(map[string]Counters, len(s.byRoute)),
	}
	for k, v := range s.byClass {
		out.ByClass[k] = v
	}
	for k, v := range s.byRoute {
		out.ByRoute[k] = v
	}
	if s.trackKeys {
		out.ByKey = make(map[string]Counters, len(s.byKey))
		for k, v := range s.byKey {
			out.ByKey[k] = v
		}
	}
	return out
}

// Read é o Snapshot com a assinatura comum aos stores de estatística.
func (s *MemoryStatsStore) Read(context.Context) (StatsSnapshot, error) {
	return s.Snapshot(), nil
}

// MultiStatsStore repassa o evento para vários stores; devolve o primeiro erro
// mas sempre tenta todos.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
