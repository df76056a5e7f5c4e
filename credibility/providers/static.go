package providers

import (
	"context"
	"sync"
)

// Static devolve sempre a mesma resposta. Útil em testes e em demo local
// (LLM_PROVIDER=static) sem gastar cota.
type Static struct {
	mu       sync.Mutex
	Response string
	Err      error
	ModelID  string
	prompts  []string
}

func NewStatic(response string) *Static {
	return &Static{Response: response, ModelID: "static"}
}

func (s *Static) Name() string  { return NameStatic }
func (s *Static) Model() string { return s.ModelID }

func (s *Static) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	resp, err := s.Response, s.Err
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return resp, err
}

// Prompts devolve os prompts recebidos, em ordem.
func (s *Static) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// DemoPostResponse é o veredito usado pelo modo static quando nada é configurado.
const DemoPostResponse = "```json\n{\"verdict\": \"Unverified\", \"confidence\": 60, \"reasoning\": \"Static demo provider; no model was consulted.\", \"sources\": []}\n```"
