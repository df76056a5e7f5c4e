package credibility

import "strings"

// Kind diz qual schema pedir ao modelo.
type Kind string

const (
	KindTopic Kind = "topic"
	KindPost  Kind = "post"
)

// ParseKind aceita vazio como post, igual ao cliente web.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindPost):
		return KindPost, true
	case string(KindTopic):
		return KindTopic, true
	}
	return "", false
}

// Subject é o que será pontuado. Title e Sources só existem no caminho de post.
type Subject struct {
	Text    string
	Kind    Kind
	Title   string
	Sources []string
}

// Verdict é o rótulo de credibilidade de um post.
type Verdict string

const (
	Verified   Verdict = "Verified"
	Mixed      Verdict = "Mixed"
	False      Verdict = "False"
	Unverified Verdict = "Unverified"
)

// ParseVerdict normaliza o rótulo devolvido pelo modelo; desconhecido vira Unverified.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verified":
		return Verified
	case "mixed":
		return Mixed
	case "false":
		return False
	}
	return Unverified
}

// TopicVerdict é o rótulo do rundown de um tópico.
type TopicVerdict string

const (
	TopicVerified TopicVerdict = "Verified"
	TopicMixed    TopicVerdict = "Mixed/Disputed"
	TopicOpinion  TopicVerdict = "Opinion/Analysis"
)

// PostVerdict é o resultado do caminho de post.
type PostVerdict struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence int      `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Sources    []string `json:"sources"`

	// Fallback indica que a resposta do modelo não era JSON válido.
	Fallback bool `json:"-"`
}

// Claim é uma afirmação do rundown com confiança entre 0 e 1.
type Claim struct {
	Claim      string  `json:"claim"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

// TopicRundown é o resultado do caminho de tópico.
type TopicRundown struct {
	Verdict   TopicVerdict `json:"verdict"`
	Summary   []string     `json:"summary"`
	KeyClaims []Claim      `json:"keyClaims"`
	Sources   []string     `json:"sources"`
	Related   []string     `json:"related,omitempty"`
}

// Result carrega um dos dois resultados, conforme o Kind.
type Result struct {
	Kind  Kind
	Post  *PostVerdict
	Topic *TopicRundown
}

// Data devolve o payload que vai para o cliente.
func (r Result) Data() any {
	if r.Kind == KindTopic {
		return r.Topic
	}
	return r.Post
}
