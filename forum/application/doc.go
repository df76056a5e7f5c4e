// Package application orquestra a criação de posts: pontuação pelo
// credibility.Scorer, média de credibilidade do autor e gravação no PostStore.
package application
