// Package mock provides deterministic test doubles for the ai interfaces.
// The mock embedder derives vectors from a text hash, so identical text
// always embeds identically and tests never need a live model server.
package mock
