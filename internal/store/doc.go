// Package store provides abstractions for persisting learner state.
// The progression engine is storage-agnostic: it consumes a loaded snapshot
// and produces a new snapshot plus an append-only record of applied events;
// implementations of this package make the pair durable atomically.
package store
