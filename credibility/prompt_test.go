package credibility

import (
	"strings"
	"testing"
)

func TestBuildPromptKeepsUserTextRaw(t *testing.T) {
	p := BuildPrompt(Subject{
		Kind:  KindPost,
		Title: `The "new" bridge`,
		Text:  "line one\nline two",
	})

	if !strings.Contains(p, "Post Title: \"The \"new\" bridge\"\n") {
		t.Fatalf("expected raw title in prompt, got:\n%s", p)
	}
	if !strings.Contains(p, "Post Content: \"line one\nline two\"\n") {
		t.Fatalf("expected raw multi-line content in prompt, got:\n%s", p)
	}
	if strings.Contains(p, `\n`) || strings.Contains(p, `\"`) {
		t.Fatalf("prompt must not carry Go escapes, got:\n%s", p)
	}
	if !strings.Contains(p, "No sources provided") {
		t.Fatalf("expected no-sources line, got:\n%s", p)
	}
}

func TestBuildPromptTopic(t *testing.T) {
	p := BuildPrompt(Subject{Kind: KindTopic, Text: "moon \"landing\""})
	if !strings.Contains(p, "Topic: \"moon \"landing\"\"\n\n") {
		t.Fatalf("expected raw topic in prompt, got:\n%s", p)
	}
	if !strings.Contains(p, `"keyClaims"`) {
		t.Fatalf("expected topic schema, got:\n%s", p)
	}
}
