package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  string
	}{
		{"full name", Actor{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, "Ada Lovelace"},
		{"only first name", Actor{FirstName: "Ada", Username: "ada"}, "ada"},
		{"username", Actor{Username: "ada"}, "ada"},
		{"nothing", Actor{ID: "u1"}, "Anonymous"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.actor.DisplayName(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHeaderAuthenticator(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/posts", nil)
	r.Header.Set(HeaderUserID, " user_123 ")
	r.Header.Set(HeaderFirstName, "Ada")
	r.Header.Set(HeaderLastName, "Lovelace")

	a, err := HeaderAuthenticator{}.Authenticate(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "user_123" || a.DisplayName() != "Ada Lovelace" {
		t.Fatalf("unexpected actor: %+v", a)
	}
}

func TestHeaderAuthenticatorMissingID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/posts", nil)
	if _, err := (HeaderAuthenticator{}).Authenticate(r); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestHeaderAuthenticatorSecret(t *testing.T) {
	auth := HeaderAuthenticator{Secret: "s3cret"}

	r := httptest.NewRequest(http.MethodPost, "/posts", nil)
	r.Header.Set(HeaderUserID, "u1")
	if _, err := auth.Authenticate(r); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without secret, got %v", err)
	}

	r.Header.Set(HeaderSecret, "wrong")
	if _, err := auth.Authenticate(r); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated with wrong secret, got %v", err)
	}

	r.Header.Set(HeaderSecret, "s3cret")
	if _, err := auth.Authenticate(r); err != nil {
		t.Fatalf("unexpected error with right secret: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	var failed int
	var seen string
	h := Middleware(HeaderAuthenticator{}, func(w http.ResponseWriter, r *http.Request, err error) {
		failed++
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/posts", nil))
	if rr.Code != http.StatusUnauthorized || failed != 1 {
		t.Fatalf("expected 401 and onFail once, got %d / %d", rr.Code, failed)
	}

	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.Header.Set(HeaderUserID, "u9")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || seen != "u9" {
		t.Fatalf("expected 200 with actor u9, got %d / %q", rr.Code, seen)
	}
}
