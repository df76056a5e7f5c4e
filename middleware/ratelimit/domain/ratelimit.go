package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica quem está sendo limitado (no nosso caso, o id do ator autenticado).
type Key string

// Class separa os contadores por tipo de ação. Cada classe tem a sua janela,
// então o mesmo ator tem contadores independentes para fact-check e para posts.
type Class string

const (
	ClassFactCheck  Class = "fact-check"
	ClassPostCreate Class = "post-create"
)

// Window é o par (limite, duração) de uma classe.
type Window struct {
	Limit    int
	Duration time.Duration
}

// Entry é o contador de um ator dentro da janela corrente.
// Uma Entry zero representa "nenhuma requisição ainda".
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Hit aplica a regra de janela fixa e devolve a entrada resultante.
//
//   - sem entrada, ou now depois de ResetAt: reinicia com Count=1 e permite
//   - Count < Limit: incrementa e permite
//   - caso contrário: nega sem alterar a entrada
func (e Entry) Hit(now time.Time, w Window) (Entry, bool) {
	if e.ResetAt.IsZero() || now.After(e.ResetAt) {
		return Entry{Count: 1, ResetAt: now.Add(w.Duration)}, true
	}
	if e.Count < w.Limit {
		e.Count++
		return e, true
	}
	return e, false
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// NewDecision monta a decisão a partir do estado da entrada após o Hit.
func NewDecision(e Entry, w Window, allowed bool, now time.Time) Decision {
	dec := Decision{
		Allowed:   allowed,
		Limit:     w.Limit,
		Remaining: w.Limit - e.Count,
		ResetAt:   e.ResetAt,
	}
	if dec.Remaining < 0 {
		dec.Remaining = 0
	}
	if !allowed {
		if d := e.ResetAt.Sub(now); d > 0 {
			dec.RetryAfter = d
		}
	}
	return dec
}

// CounterStore guarda as entradas por (classe, chave) e aplica o Hit de forma
// atômica por chave. Implementações: memória (mutex por ator) e Redis (script Lua).
type CounterStore interface {
	Hit(ctx context.Context, class Class, key Key, w Window) (Decision, error)
}
