package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"grounded/middleware/ratelimit/domain"
)

// SlotService aplica o prazo de espera por uma vaga de pontuação.
type SlotService struct {
	Pool domain.SlotPool
	// Wait <= 0 espera enquanto o ctx da requisição durar.
	Wait time.Duration
	Log  *slog.Logger
}

// Acquire devolve o release ou domain.ErrNoSlot. Cancelamento do próprio
// cliente volta como ctx.Err().
func (s SlotService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.Wait > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.Wait)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if ok {
		return release, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Log != nil {
		s.Log.Warn("scoring slots exhausted", "in_flight", s.Pool.InFlight(), "cap", s.Pool.Cap(), "wait", s.Wait)
	}
	return nil, domain.ErrNoSlot
}

// IsNoSlot diz se o erro veio de falta de vaga (e não do cliente ter desistido).
func IsNoSlot(err error) bool {
	return errors.Is(err, domain.ErrNoSlot)
}
