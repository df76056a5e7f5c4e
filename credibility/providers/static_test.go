package providers

import (
	"context"
	"errors"
	"testing"
)

func TestStaticGenerate(t *testing.T) {
	s := NewStatic("hello")
	got, err := s.Generate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if len(s.Prompts()) != 1 || s.Prompts()[0] != "p1" {
		t.Fatalf("expected prompt to be recorded, got %v", s.Prompts())
	}
}

func TestStaticGenerateError(t *testing.T) {
	s := NewStatic("")
	s.Err = errors.New("boom")
	if _, err := s.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStaticGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStatic("x").Generate(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestNewAnthropicRequiresKey(t *testing.T) {
	if _, err := NewAnthropic("", "", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}
