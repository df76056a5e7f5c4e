package infra

import (
	"context"
	"time"
)

// Cleaner é um store que descarta entradas velhas sob demanda.
type Cleaner interface {
	Cleanup()
}

// RunJanitor chama Cleanup em cada store a cada intervalo até o ctx encerrar.
// Bloqueia; feito para rodar num errgroup.
func RunJanitor(ctx context.Context, every time.Duration, stores ...Cleaner) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			for _, s := range stores {
				if s != nil {
					s.Cleanup()
				}
			}
		}
	}
}
