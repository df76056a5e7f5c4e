// Package domain define contratos e tipos de domínio para rate limit por ator
// (janela fixa), estatísticas e limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
