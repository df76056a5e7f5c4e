package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"grounded/credibility"
	"grounded/forum/domain"
)

// Formatos JSON que o cliente web lê.

type errorBody struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	RawResponse string `json:"rawResponse,omitempty"`
}

type factCheckRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type usageBody struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type factCheckResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Usage   usageBody `json:"usage"`
}

type createPostRequest struct {
	Topic   string   `json:"topic"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

type userBody struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Credibility  int    `json:"credibility"`
	IsJournalist bool   `json:"isJournalist"`
}

type postBody struct {
	ID           string              `json:"id"`
	Topic        string              `json:"topic"`
	User         userBody            `json:"user"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	AIVerdict    credibility.Verdict `json:"aiVerdict"`
	AIConfidence int                 `json:"aiConfidence"`
	Upvotes      int                 `json:"upvotes"`
	Downvotes    int                 `json:"downvotes"`
	CommentCount int                 `json:"commentCount"`
	Timestamp    string              `json:"timestamp"`
	Sources      []string            `json:"sources"`
}

type listPostsResponse struct {
	Success bool       `json:"success"`
	Posts   []postBody `json:"posts"`
	Count   int        `json:"count"`
}

type analysisBody struct {
	Verdict    credibility.Verdict `json:"verdict"`
	Confidence int                 `json:"confidence"`
	Reasoning  string              `json:"reasoning"`
}

type createPostResponse struct {
	Success    bool         `json:"success"`
	Post       postBody     `json:"post"`
	AIAnalysis analysisBody `json:"aiAnalysis"`
}

type statusResponse struct {
	OK       bool   `json:"ok"`
	HasKey   bool   `json:"hasKey"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

func toPostBody(p domain.Post, now time.Time) postBody {
	sources := p.Sources
	if sources == nil {
		sources = []string{}
	}
	return postBody{
		ID:    p.ID,
		Topic: p.Topic,
		User: userBody{
			ID:           p.Author.ID,
			Name:         p.Author.DisplayName,
			Avatar:       p.Author.AvatarGlyph,
			Credibility:  p.Author.CredibilityScore,
			IsJournalist: p.Author.IsJournalist,
		},
		Title:        p.Title,
		Content:      p.Body,
		AIVerdict:    p.Verdict,
		AIConfidence: p.Confidence,
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
		CommentCount: p.CommentCount,
		Timestamp:    displayTime(p.CreatedAt, now),
		Sources:      sources,
	}
}

// displayTime: "just now" no primeiro minuto, depois "5 minutes ago" etc.
func displayTime(t, now time.Time) string {
	if t.IsZero() || now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
