// Package postgres provides PostgreSQL-backed implementations of the store
// interfaces. Learner snapshots are stored as JSONB documents with an
// optimistic version column; applied events go to an append-only log table,
// written in the same transaction as the snapshot they produced.
package postgres
