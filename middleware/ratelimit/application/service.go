package application

import (
	"context"
	"log/slog"

	"grounded/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store   domain.CounterStore
	Windows map[domain.Class]domain.Window
	Log     *slog.Logger
}

// Decide consulta o store para a janela da classe.
//
// Sem store ou sem janela configurada para a classe, tudo é permitido.
// Erro do store (ex.: Redis fora) também permite, com log.
func (s Service) Decide(ctx context.Context, class domain.Class, key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	w, ok := s.Windows[class]
	if !ok || w.Limit <= 0 || w.Duration <= 0 {
		return domain.Decision{Allowed: true}
	}

	dec, err := s.Store.Hit(ctx, class, key, w)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("rate limit store error, allowing", "class", class, "key", key, "error", err)
		}
		return domain.Decision{Allowed: true, Limit: w.Limit}
	}
	return dec
}

// Allow é o contrato booleano puro: allow(ator) -> permitido?
func (s Service) Allow(ctx context.Context, class domain.Class, key domain.Key) bool {
	return s.Decide(ctx, class, key).Allowed
}
