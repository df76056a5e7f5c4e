// Package domain define os tipos do fórum: Post, Author e o contrato PostStore.
package domain
