package credibility

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```[ \t]*$")
)

// StripFences remove a cerca de markdown (```json ... ```) em volta da resposta.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// FallbackPostVerdict é o que o caminho de post devolve quando o modelo não
// respondeu JSON válido.
func FallbackPostVerdict() PostVerdict {
	return PostVerdict{
		Verdict:    Unverified,
		Confidence: 50,
		Reasoning:  "Unable to verify claims",
		Sources:    []string{},
		Fallback:   true,
	}
}

// ParsePostVerdict nunca falha: JSON inválido vira FallbackPostVerdict.
// Confiança ausente (ou zero) vira 50; fora de [0,100] é cortada.
// Campos com tipo inesperado são aceitos quando dá ("85" vira 85) e ignorados quando não.
func ParsePostVerdict(text string) PostVerdict {
	fields, err := decodeObject(StripFences(text))
	if err != nil {
		return FallbackPostVerdict()
	}

	v := PostVerdict{
		Verdict:    ParseVerdict(looseString(fields["verdict"])),
		Confidence: 50,
		Reasoning:  looseString(fields["reasoning"]),
		Sources:    looseStrings(fields["sources"]),
	}
	if c, ok := looseNumber(fields["confidence"]); ok && c != 0 {
		v.Confidence = ClampConfidence(c)
	}
	return v
}

// ParseTopicRundown devolve *MalformedError só quando o texto não é um objeto JSON.
func ParseTopicRundown(text string) (TopicRundown, error) {
	fields, err := decodeObject(StripFences(text))
	if err != nil {
		return TopicRundown{}, &MalformedError{Raw: text, Err: err}
	}

	r := TopicRundown{
		Verdict:   TopicVerdict(looseString(fields["verdict"])),
		Summary:   looseStrings(fields["summary"]),
		KeyClaims: looseClaims(fields["keyClaims"]),
		Sources:   looseStrings(fields["sources"]),
	}
	if related := looseStrings(fields["related"]); len(related) > 0 {
		r.Related = related
	}
	return r, nil
}

// ClampConfidence corta em [0,100] ainda em float64 e só então arredonda.
func ClampConfidence(c float64) int {
	return int(math.Round(math.Min(100, math.Max(0, c))))
}

func looseClaims(raw json.RawMessage) []Claim {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return []Claim{}
	}
	claims := make([]Claim, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		c := Claim{
			Claim: looseString(obj["claim"]),
			Notes: looseString(obj["notes"]),
		}
		if conf, ok := looseNumber(obj["confidence"]); ok {
			c.Confidence = math.Min(1, math.Max(0, conf))
		}
		claims = append(claims, c)
	}
	return claims
}

// looseString aceita string, número ou bool; o resto vira "".
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

// looseStrings aceita lista ou string solta; itens que não são texto ficam de fora.
func looseStrings(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		for _, item := range items {
			if s := looseString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := looseString(raw); s != "" {
		out = append(out, s)
	}
	return out
}

// looseNumber aceita número ou string numérica. NaN não conta; overflow vira ±Inf.
func looseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	text := string(raw)
	var s string
	if json.Unmarshal(raw, &s) == nil {
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	} else {
		var n json.Number
		if json.Unmarshal(raw, &n) != nil {
			return 0, false
		}
		text = n.String()
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var (
	errTrailingData = errors.New("trailing data after JSON object")
	errNotObject    = errors.New("model output is not a JSON object")
)

// decodeObject exige um único objeto JSON, sem lixo depois. Os campos ficam
// crus para cada um ser lido com tolerância.
func decodeObject(text string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	if fields == nil {
		return nil, errNotObject
	}
	return fields, nil
}
