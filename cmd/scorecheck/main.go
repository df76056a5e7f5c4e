// scorecheck manda um texto para o provedor configurado e imprime o veredito.
// Serve para validar chave de API e modelo sem subir o servidor.
//
//	scorecheck -type topic "epstein files"
//	scorecheck -type post -title "Bridge" "The bridge reopened on Monday"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"grounded/credibility"
	"grounded/credibility/providers"
)

func main() {
	_ = godotenv.Load()

	providerName := flag.String("provider", envOrDefault("LLM_PROVIDER", providers.NameGemini), "gemini | openai | anthropic | static")
	model := flag.String("model", os.Getenv("LLM_MODEL"), "model id (default depends on provider)")
	kindFlag := flag.String("type", "post", "topic | post")
	title := flag.String("title", "", "post title (post only)")
	sources := flag.String("sources", "", "comma separated sources (post only)")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "Usage: scorecheck [-provider p] [-model m] [-type topic|post] [-title t] <text>")
		os.Exit(2)
	}
	kind, ok := credibility.ParseKind(*kindFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -type %q\n", *kindFlag)
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	p, err := newProvider(ctx, strings.ToLower(*providerName), *model)
	if err != nil {
		log.Error("provider", "error", err)
		os.Exit(1)
	}
	scorer := credibility.New(p, credibility.WithTimeout(*timeout), credibility.WithLogger(log))

	subj := credibility.Subject{Text: text, Kind: kind, Title: *title}
	if *sources != "" {
		for _, s := range strings.Split(*sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subj.Sources = append(subj.Sources, s)
			}
		}
	}

	start := time.Now()
	res, err := scorer.Score(ctx, subj)
	if err != nil {
		var malformed *credibility.MalformedError
		if errors.As(err, &malformed) {
			fmt.Fprintf(os.Stderr, "model returned invalid JSON:\n%s\n", malformed.Raw)
		}
		log.Error("score", "provider", scorer.ProviderName(), "model", scorer.Model(), "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res.Data(), "", "  ")
	fmt.Println(string(out))
	if res.Post != nil && res.Post.Fallback {
		fmt.Fprintln(os.Stderr, "warning: model output was not valid JSON; fallback verdict shown")
	}
	fmt.Fprintf(os.Stderr, "%s/%s in %s\n", scorer.ProviderName(), scorer.Model(), time.Since(start).Round(time.Millisecond))
}

func newProvider(ctx context.Context, name, model string) (credibility.Provider, error) {
	switch name {
	case providers.NameGemini:
		return providers.NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), model)
	case providers.NameOpenAI:
		return providers.NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"), model)
	case providers.NameAnthropic:
		return providers.NewAnthropic(os.Getenv("ANTHROPIC_API_KEY"), "", model)
	case providers.NameStatic:
		return providers.NewStatic(providers.DemoPostResponse), nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
