package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"grounded/middleware/ratelimit/application"
	"grounded/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	// AcquireTimeout é quanto a requisição espera por vaga; 0 espera enquanto o cliente esperar.
	AcquireTimeout time.Duration
	OnReject       func(w http.ResponseWriter, r *http.Request, status int)
	Log            *slog.Logger
}

// ConcurrencyMiddleware limita as requisições simultâneas que chegam ao modelo.
// Max <= 0 desliga. Cliente que desiste enquanto espera não recebe resposta.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.OnReject == nil {
		opts.OnReject = func(w http.ResponseWriter, _ *http.Request, status int) {
			http.Error(w, http.StatusText(status), status)
		}
	}

	svc := application.SlotService{
		Pool: infra.NewSlots(opts.Max),
		Wait: opts.AcquireTimeout,
		Log:  opts.Log,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if application.IsNoSlot(err) {
					opts.OnReject(w, r, opts.RejectStatus)
				}
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
