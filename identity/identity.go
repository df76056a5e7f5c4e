// Package identity lê o ator autenticado que o proxy de autenticação da frente
// repassa em cabeçalhos. O serviço não autentica ninguém sozinho.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated: a requisição não trouxe um ator (ou o segredo não bate).
var ErrUnauthenticated = errors.New("unauthorized")

// Cabeçalhos preenchidos pelo proxy de autenticação.
const (
	HeaderUserID    = "X-User-Id"
	HeaderFirstName = "X-User-First-Name"
	HeaderLastName  = "X-User-Last-Name"
	HeaderUsername  = "X-User-Username"
	HeaderImageURL  = "X-User-Image-Url"
	HeaderSecret    = "X-Auth-Secret"
)

// Actor é o usuário autenticado. ID é estável entre requisições.
type Actor struct {
	ID        string
	FirstName string
	LastName  string
	Username  string
	ImageURL  string
}

// DisplayName: "Nome Sobrenome" se os dois existem, senão o username, senão "Anonymous".
func (a Actor) DisplayName() string {
	if a.FirstName != "" && a.LastName != "" {
		return a.FirstName + " " + a.LastName
	}
	if a.Username != "" {
		return a.Username
	}
	return "Anonymous"
}

// Authenticator extrai o ator de uma requisição.
type Authenticator interface {
	Authenticate(r *http.Request) (Actor, error)
}

// HeaderAuthenticator confia nos cabeçalhos X-User-*. Com Secret configurado,
// X-Auth-Secret precisa bater.
type HeaderAuthenticator struct {
	Secret string
}

var _ Authenticator = HeaderAuthenticator{}

func (h HeaderAuthenticator) Authenticate(r *http.Request) (Actor, error) {
	if h.Secret != "" {
		got := r.Header.Get(HeaderSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			return Actor{}, ErrUnauthenticated
		}
	}

	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Actor{}, ErrUnauthenticated
	}
	return Actor{
		ID:        id,
		FirstName: strings.TrimSpace(r.Header.Get(HeaderFirstName)),
		LastName:  strings.TrimSpace(r.Header.Get(HeaderLastName)),
		Username:  strings.TrimSpace(r.Header.Get(HeaderUsername)),
		ImageURL:  strings.TrimSpace(r.Header.Get(HeaderImageURL)),
	}, nil
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// ActorID devolve o ID do ator do contexto, ou "". Serve de KeyFunc para o rate limit.
func ActorID(ctx context.Context) string {
	a, _ := FromContext(ctx)
	return a.ID
}

// Middleware autentica e guarda o ator no contexto. Sem ator chama onFail
// (o escritor de erro da API) e não segue adiante.
func Middleware(auth Authenticator, onFail func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := auth.Authenticate(r)
			if err != nil {
				onFail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
