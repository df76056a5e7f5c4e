package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"grounded/credibility"
)

const maxBodyBytes = 1 << 20

const (
	msgInternal      = "Internal server error"
	msgNotConfigured = "Server configuration error - API key not set"
	msgMalformed     = "AI returned invalid format"
	msgUpstream      = "AI service unavailable"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// writeScorerError traduz os erros do credibility.Scorer. Tudo vira 500;
// muda só a mensagem.
func writeScorerError(w http.ResponseWriter, log *slog.Logger, err error) {
	var malformed *credibility.MalformedError
	switch {
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgMalformed, RawResponse: malformed.Raw})
	case errors.Is(err, credibility.ErrNotConfigured):
		log.Error("scorer not configured")
		writeError(w, http.StatusInternalServerError, msgNotConfigured, "")
	case errors.Is(err, credibility.ErrUpstreamUnavailable):
		log.Error("scorer upstream failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgUpstream, err.Error())
	default:
		log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal, err.Error())
	}
}

// decodeBody lê o corpo JSON. Corpo vazio ou inválido devolve erro.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
