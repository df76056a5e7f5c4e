package api

import (
	"errors"
	"net/http"
	"strings"

	"grounded/credibility"
	"grounded/forum/application"
	"grounded/identity"
)

func (s *Server) factCheck(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Scorer.Configured() {
		writeScorerError(w, s.log, credibility.ErrNotConfigured)
		return
	}

	var req factCheckRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request - content is required", "")
		return
	}
	kind, ok := credibility.ParseKind(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request - type must be \"topic\" or \"post\"", "")
		return
	}

	actor, _ := identity.FromContext(r.Context())
	res, err := s.cfg.Scorer.Score(r.Context(), credibility.Subject{Text: req.Content, Kind: kind})
	if err != nil {
		s.log.Warn("fact-check failed", "actor", actor.ID, "kind", kind, "err", err)
		writeScorerError(w, s.log, err)
		return
	}

	s.log.Info("fact-check", "actor", actor.ID, "kind", kind)
	writeJSON(w, http.StatusOK, factCheckResponse{
		Success: true,
		Data:    res.Data(),
		Usage:   usageBody{Provider: s.cfg.Scorer.ProviderName(), Model: s.cfg.Scorer.Model()},
	})
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "Topic parameter is required", "")
		return
	}

	posts, err := s.cfg.Posts.ListPosts(r.Context(), topic)
	if err != nil {
		s.log.Error("list posts failed", "topic", topic, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal, err.Error())
		return
	}

	now := s.now()
	out := make([]postBody, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostBody(p, now))
	}
	writeJSON(w, http.StatusOK, listPostsResponse{Success: true, Posts: out, Count: len(out)})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Topic, title, and content are required", "")
		return
	}

	actor, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized - Please sign in to post", "")
		return
	}

	res, err := s.cfg.Posts.CreatePost(r.Context(), actor, application.CreatePostInput{
		Topic:   req.Topic,
		Title:   req.Title,
		Content: req.Content,
		Sources: req.Sources,
	})
	if errors.Is(err, application.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Topic, title, and content are required", "")
		return
	}
	if err != nil {
		writeScorerError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, createPostResponse{
		Success: true,
		Post:    toPostBody(res.Post, s.now()),
		AIAnalysis: analysisBody{
			Verdict:    res.Analysis.Verdict,
			Confidence: res.Analysis.Confidence,
			Reasoning:  res.Analysis.Reasoning,
		},
	})
}

func (s *Server) rundownStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		OK:       true,
		HasKey:   s.cfg.Scorer.Configured(),
		Provider: s.cfg.Scorer.ProviderName(),
		Model:    s.cfg.Scorer.Model(),
	})
}

func (s *Server) rateStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StatsView == nil {
		writeError(w, http.StatusNotFound, "rate limit stats disabled", "")
		return
	}
	snap, err := s.cfg.StatsView.Read(r.Context())
	if err != nil {
		s.log.Error("read rate limit stats", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
