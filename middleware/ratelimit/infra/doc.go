// Package infra contém as implementações concretas dos contratos de domain.
//
//   - MemoryCounterStore / RedisCounterStore: janela fixa por (classe, ator)
//   - BucketStore: token bucket por chave (golang.org/x/time/rate), usado para
//     segurar as chamadas de saída ao modelo
//   - MemoryStatsStore / RedisStatsStore / MultiStatsStore: contadores de allow/deny
//   - Slots: semáforo das chamadas de pontuação em voo
//   - RunJanitor: limpeza periódica dos stores em memória
package infra
