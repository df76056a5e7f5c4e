package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestOpenAIGenerate(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, `{"verdict":"Verified"}`)

	p, err := NewOpenAI("test-key", srv.URL, "gpt-test")
	require.NoError(t, err)
	assert.Equal(t, NameOpenAI, p.Name())
	assert.Equal(t, "gpt-test", p.Model())

	out, err := p.Generate(context.Background(), "rate this")
	require.NoError(t, err)
	assert.Equal(t, `{"verdict":"Verified"}`, out)

	assert.Equal(t, "gpt-test", (*captured)["model"])
	msgs, ok := (*captured)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "rate this", msgs[0].(map[string]any)["content"])
}

func TestOpenAIGenerateUpstreamError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusTooManyRequests, "")

	p, err := NewOpenAI("test-key", srv.URL, "gpt-test")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "rate this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai gpt-test")
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI("", "", "")
	require.Error(t, err)
}

func TestNewOpenAIDefaultModel(t *testing.T) {
	p, err := NewOpenAI("k", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, p.Model())
}
