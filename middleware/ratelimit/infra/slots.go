package infra

import (
	"context"
	"sync"

	"grounded/middleware/ratelimit/domain"
)

// Slots é um semáforo em channel com capacidade fixa.
type Slots struct {
	sem chan struct{}
}

var _ domain.SlotPool = (*Slots)(nil)

func NewSlots(capacity int) *Slots {
	return &Slots{sem: make(chan struct{}, capacity)}
}

func (s *Slots) Acquire(ctx context.Context) (func(), bool) {
	// ctx já encerrado não pega vaga, mesmo havendo uma livre
	if ctx.Err() != nil {
		return nil, false
	}
	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (s *Slots) InFlight() int { return len(s.sem) }
func (s *Slots) Cap() int      { return cap(s.sem) }
