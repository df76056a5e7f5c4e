package credibility

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured: nenhuma chave de API configurada para o provedor.
	ErrNotConfigured = errors.New("credibility: scorer not configured")
	// ErrUpstreamUnavailable: falha de rede/auth/cota do provedor. Não há retry.
	ErrUpstreamUnavailable = errors.New("credibility: upstream unavailable")
)

// MalformedError é devolvido quando a resposta do rundown não é JSON válido.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("credibility: malformed model output: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
