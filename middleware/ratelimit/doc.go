// Package ratelimit fornece adapters HTTP (net/http) para rate limit por ator e
// limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (janela fixa, decisão, estatísticas), sem net/http
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (memória, Redis, token bucket, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + headers
//
// Fluxo numa rota limitada da API:
//
//  1. Extrai a chave (id do ator autenticado; fallback IP/header/XFF)
//  2. Chama a camada application com a classe da rota (fact-check, post-create)
//  3. Se bloqueado, seta Retry-After e delega a resposta ao OnReject (429)
//  4. Se permitido, chama o próximo handler
//
// As janelas são configuradas em cmd/grounded (FACTCHECK_LIMIT, POST_LIMIT, ...).
package ratelimit
