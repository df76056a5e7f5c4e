// Package api expõe o serviço por HTTP (gorilla/mux).
//
// Rotas:
//
//	POST /fact-check      autenticado, rate limit "fact-check"
//	GET  /posts?topic=    público
//	POST /posts           autenticado, rate limit "post-create"
//	GET  /rundown/status  se há provedor configurado
//	GET  /stats/ratelimit contadores de allow/deny
//	GET  /health
//
// Erros saem sempre como {"error": "...", "details": "..."}.
package api
