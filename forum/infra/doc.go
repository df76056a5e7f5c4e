// Package infra tem as implementações de domain.PostStore: memória (padrão),
// SQLite com migrações goose e Postgres via pgx.
package infra
