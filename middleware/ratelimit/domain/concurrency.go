package domain

import (
	"context"
	"errors"
)

// ErrNoSlot: nenhuma vaga de pontuação liberou dentro do prazo.
var ErrNoSlot = errors.New("no scoring slot available")

// SlotPool limita quantas chamadas ao modelo ficam em voo ao mesmo tempo.
type SlotPool interface {
	// Acquire bloqueia até conseguir vaga ou o ctx encerrar. O release devolvido
	// pode ser chamado mais de uma vez; só a primeira conta.
	Acquire(ctx context.Context) (release func(), ok bool)
	InFlight() int
	Cap() int
}
