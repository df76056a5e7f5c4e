// Package credibility transforma um tópico ou um post em um veredito estruturado
// usando um serviço externo de geração de texto (Gemini, OpenAI, Anthropic).
//
// O fluxo é sempre o mesmo: monta o prompt com o schema JSON esperado, chama o
// Provider, remove cercas de markdown e decodifica o JSON de forma estrita.
//
// Há uma assimetria intencional na falha de parse:
//
//   - post: devolve o veredito de fallback (Unverified, 50) e a submissão segue
//   - tópico: devolve *MalformedError com a resposta crua (rundown é o produto principal)
//
// Falhas do provedor (rede, auth, cota) viram ErrUpstreamUnavailable, sem retry.
package credibility
