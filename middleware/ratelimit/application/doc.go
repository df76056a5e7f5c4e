// Package application tem as regras de rate limit e de vagas de pontuação,
// sem net/http.
//
// Service.Decide(ctx, classe, ator) devolve uma Decision (allow/deny + retry-after);
// SlotService.Acquire aplica o prazo de espera por vaga.
package application
