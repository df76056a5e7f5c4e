// Package providers tem os adaptadores dos serviços de geração de texto usados
// pelo credibility.Scorer. Todos implementam Name/Model/Generate.
package providers

// Nomes aceitos em LLM_PROVIDER.
const (
	NameGemini    = "gemini"
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameStatic    = "static"
)
