package credibility

import (
	"encoding/json"
	"fmt"
	"strings"
)

const preamble = "You are a fact-checking AI for the GROUNDED platform."

const topicSchema = `{
  "verdict": "Verified" | "Mixed/Disputed" | "Opinion/Analysis",
  "summary": ["3-5 bullet points summarizing key facts"],
  "keyClaims": [
    {
      "claim": "specific claim",
      "confidence": 0.0-1.0,
      "notes": "explanation"
    }
  ],
  "sources": ["source1", "source2"],
  "related": ["up to 5 related searches"]
}`

const postSchema = `{
  "verdict": "Verified" | "Mixed" | "False" | "Unverified",
  "confidence": 0-100,
  "reasoning": "brief explanation",
  "sources": ["relevant sources if applicable"]
}`

// BuildPrompt monta a instrução para o modelo conforme o Kind.
func BuildPrompt(s Subject) string {
	var sb strings.Builder

	if s.Kind == KindTopic {
		sb.WriteString(preamble)
		sb.WriteString(" Analyze this topic and provide a factual rundown.\n\n")
		fmt.Fprintf(&sb, "Topic: \"%s\"\n\n", s.Text)
		sb.WriteString("Respond with a JSON object (no markdown, just raw JSON) with this structure:\n")
		sb.WriteString(topicSchema)
		return sb.String()
	}

	sb.WriteString(preamble)
	sb.WriteString(" Analyze this forum post and rate its credibility.\n\n")
	if s.Title != "" {
		fmt.Fprintf(&sb, "Post Title: \"%s\"\n", s.Title)
		fmt.Fprintf(&sb, "Post Content: \"%s\"\n", s.Text)
		if len(s.Sources) > 0 {
			raw, _ := json.Marshal(s.Sources)
			fmt.Fprintf(&sb, "Sources provided: %s\n", raw)
		} else {
			sb.WriteString("No sources provided\n")
		}
	} else {
		fmt.Fprintf(&sb, "Post: \"%s\"\n", s.Text)
	}
	sb.WriteString("\nRespond with a JSON object (no markdown, just raw JSON) with this structure:\n")
	sb.WriteString(postSchema)
	return sb.String()
}
