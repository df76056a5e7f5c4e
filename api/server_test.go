package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grounded/credibility"
	"grounded/credibility/providers"
	"grounded/forum/application"
	"grounded/forum/infra"
	"grounded/identity"
	rlapp "grounded/middleware/ratelimit/application"
	rldomain "grounded/middleware/ratelimit/domain"
	rlinfra "grounded/middleware/ratelimit/infra"
)

const postJSON = `{"verdict":"Verified","confidence":82,"reasoning":"Consistent with public records","sources":["https://example.gov"]}`

type harness struct {
	server   *Server
	provider *providers.Static
	stats    *rlinfra.MemoryStatsStore
	now      time.Time
}

func newHarness(t *testing.T, response string) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		provider: providers.NewStatic(response),
		stats:    rlinfra.NewMemoryStatsStore(),
		now:      time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }

	scorer := credibility.New(h.provider, credibility.WithLogger(log))
	posts := application.NewPostService(infra.NewMemoryPostStore(), scorer, log)
	posts.Now = clock

	h.server = NewServer(Config{
		Scorer: scorer,
		Posts:  posts,
		Auth:   identity.HeaderAuthenticator{},
		Limits: rlapp.Service{
			Store: rlinfra.NewMemoryCounterStore(rlinfra.WithClock(clock)),
			Windows: map[rldomain.Class]rldomain.Window{
				rldomain.ClassFactCheck:  {Limit: 10, Duration: time.Hour},
				rldomain.ClassPostCreate: {Limit: 5, Duration: time.Hour},
			},
			Log: log,
		},
		Stats:               h.stats,
		StatsView:           h.stats,
		AddRateLimitHeaders: true,
		Log:                 log,
		Now:                 clock,
	})
	return h
}

func (h *harness) do(t *testing.T, method, target, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if actor != "" {
		req.Header.Set(identity.HeaderUserID, actor)
		req.Header.Set(identity.HeaderFirstName, "Ada")
		req.Header.Set(identity.HeaderLastName, "Lovelace")
	}
	rr := httptest.NewRecorder()
	h.server.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestFactCheckRequiresAuth(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodPost, "/fact-check", "", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "Unauthorized")
	assert.Empty(t, h.provider.Prompts())
}

func TestFactCheckPost(t *testing.T) {
	h := newHarness(t, "```json\n"+postJSON+"\n```")
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "The bridge reopened", "type": "post"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Verified", data["verdict"])
	assert.Equal(t, float64(82), data["confidence"])
	usage := body["usage"].(map[string]any)
	assert.Equal(t, "static", usage["model"])

	assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestFactCheckPostFallback(t *testing.T) {
	h := newHarness(t, "I cannot produce JSON today.")
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, "Unverified", data["verdict"])
	assert.Equal(t, float64(50), data["confidence"])
	assert.Equal(t, "Unable to verify claims", data["reasoning"])
	assert.Equal(t, []any{}, data["sources"])
}

func TestFactCheckTopic(t *testing.T) {
	h := newHarness(t, `{"verdict":"Mixed/Disputed","summary":["a","b","c"],"keyClaims":[{"claim":"c","confidence":0.4,"notes":"n"}],"sources":["s"]}`)
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "epstein files", "type": "topic"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, "Mixed/Disputed", data["verdict"])
	assert.Len(t, data["keyClaims"], 1)
}

func TestFactCheckTopicLooseFieldTypes(t *testing.T) {
	h := newHarness(t, `{"verdict":"Verified","summary":"one string","keyClaims":[{"claim":"c","confidence":"0.9"}],"sources":"s"}`)
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "bridge", "type": "topic"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, []any{"one string"}, data["summary"])
	assert.Equal(t, []any{"s"}, data["sources"])
	claims := data["keyClaims"].([]any)
	require.Len(t, claims, 1)
	assert.Equal(t, 0.9, claims[0].(map[string]any)["confidence"])
}

func TestFactCheckPostConfidenceAsString(t *testing.T) {
	h := newHarness(t, `{"verdict":"Verified","confidence":"85","reasoning":"r","sources":[]}`)
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, "Verified", data["verdict"])
	assert.Equal(t, float64(85), data["confidence"])
}

func TestFactCheckTopicMalformed(t *testing.T) {
	h := newHarness(t, "not json")
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x", "type": "topic"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "AI returned invalid format", body["error"])
	assert.Equal(t, "not json", body["rawResponse"])
}

func TestFactCheckUpstreamFailure(t *testing.T) {
	h := newHarness(t, "")
	h.provider.Err = errors.New("403 quota")
	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode(t, rr)["details"], "403 quota")
}

func TestFactCheckBadBody(t *testing.T) {
	h := newHarness(t, postJSON)

	for _, body := range []any{"{", map[string]string{"content": "  "}, map[string]string{"type": "topic"}} {
		rr := h.do(t, http.MethodPost, "/fact-check", "u1", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request - content is required", decode(t, rr)["error"])
	}

	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x", "type": "comment"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, h.provider.Prompts())
}

func TestFactCheckNotConfigured(t *testing.T) {
	h := newHarness(t, postJSON)
	h.server.cfg.Scorer = credibility.New(nil)

	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "API key not set")
}

func TestFactCheckRateLimit(t *testing.T) {
	h := newHarness(t, postJSON)
	for i := 0; i < 10; i++ {
		rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr := h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", decode(t, rr)["error"])
	assert.Equal(t, "3600", rr.Header().Get("Retry-After"))

	// outro ator tem a própria janela
	rr = h.do(t, http.MethodPost, "/fact-check", "u2", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusOK, rr.Code)

	// janela vence
	h.now = h.now.Add(time.Hour + time.Second)
	rr = h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusOK, rr.Code)

	snap := h.stats.Snapshot()
	assert.Equal(t, int64(12), snap.ByClass[rldomain.ClassFactCheck].Allowed)
	assert.Equal(t, int64(1), snap.ByClass[rldomain.ClassFactCheck].Denied)
}

func TestListPostsRequiresTopic(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodGet, "/posts", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Topic parameter is required", decode(t, rr)["error"])
}

func TestListPostsEmpty(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodGet, "/posts?topic=nobody", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{}, body["posts"])
	assert.Equal(t, float64(0), body["count"])
}

func TestCreateAndListPosts(t *testing.T) {
	h := newHarness(t, postJSON)

	rr := h.do(t, http.MethodPost, "/posts", "u1", map[string]any{
		"topic":   "Epstein",
		"title":   "Flight logs",
		"content": "The logs were released.",
		"sources": []string{"https://example.com/a"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	post := body["post"].(map[string]any)
	assert.Equal(t, "epstein", post["topic"])
	assert.Equal(t, "Verified", post["aiVerdict"])
	assert.Equal(t, float64(82), post["aiConfidence"])
	assert.Equal(t, "just now", post["timestamp"])
	assert.Equal(t, float64(0), post["upvotes"])
	user := post["user"].(map[string]any)
	assert.Equal(t, "Ada Lovelace", user["name"])
	assert.Equal(t, float64(75), user["credibility"])
	assert.Equal(t, "👤", user["avatar"])

	analysis := body["aiAnalysis"].(map[string]any)
	assert.Equal(t, "Consistent with public records", analysis["reasoning"])

	h.now = h.now.Add(10 * time.Minute)
	rr = h.do(t, http.MethodPost, "/posts", "u1", map[string]any{"topic": "epstein", "title": "Second", "content": "More."})
	require.Equal(t, http.StatusOK, rr.Code)
	second := decode(t, rr)["post"].(map[string]any)
	assert.Equal(t, float64(82), second["user"].(map[string]any)["credibility"])

	rr = h.do(t, http.MethodGet, "/posts?topic=EPSTEIN", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode(t, rr)
	assert.Equal(t, float64(2), list["count"])
	posts := list["posts"].([]any)
	assert.Equal(t, "Second", posts[0].(map[string]any)["title"])
	assert.Equal(t, "just now", posts[0].(map[string]any)["timestamp"])
	assert.Equal(t, "10 minutes ago", posts[1].(map[string]any)["timestamp"])
}

func TestCreatePostValidation(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodPost, "/posts", "u1", map[string]string{"topic": "t", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Topic, title, and content are required", decode(t, rr)["error"])
}

func TestCreatePostRateLimit(t *testing.T) {
	h := newHarness(t, postJSON)
	for i := 0; i < 5; i++ {
		rr := h.do(t, http.MethodPost, "/posts", "u1", map[string]string{"topic": "t", "title": fmt.Sprint(i), "content": "c"})
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := h.do(t, http.MethodPost, "/posts", "u1", map[string]string{"topic": "t", "title": "6", "content": "c"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Rate limit exceeded. Maximum 5 posts per hour.", decode(t, rr)["error"])

	// a cota de post não consome a de fact-check
	rr = h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreatePostInvalidBodyStillCountsAgainstLimit(t *testing.T) {
	h := newHarness(t, postJSON)
	for i := 0; i < 5; i++ {
		rr := h.do(t, http.MethodPost, "/posts", "u1", "{}")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}
	rr := h.do(t, http.MethodPost, "/posts", "u1", map[string]string{"topic": "t", "title": "x", "content": "c"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRundownStatus(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodGet, "/rundown/status", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["hasKey"])
	assert.Equal(t, "static", body["provider"])
}

func TestRateStats(t *testing.T) {
	h := newHarness(t, postJSON)
	h.do(t, http.MethodPost, "/fact-check", "u1", map[string]string{"content": "x"})

	rr := h.do(t, http.MethodGet, "/stats/ratelimit", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var snap rlinfra.StatsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Total.Allowed)
	assert.Equal(t, int64(1), snap.ByRoute["POST /fact-check"].Allowed)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHarness(t, postJSON)
	rr := h.do(t, http.MethodDelete, "/posts", "u1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestDisplayTime(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", displayTime(now.Add(-30*time.Second), now))
	assert.Equal(t, "just now", displayTime(time.Time{}, now))
	assert.Equal(t, "2 hours ago", displayTime(now.Add(-2*time.Hour), now))
}
