// Package progression implements the learning progression engine: a pure
// reducer over an ordered, deduplicated event log. The event ledger assigns
// server sequence numbers and guarantees exactly-once effect application; the
// spaced-repetition scheduler, the streak & XP ledger, and the daily challenge
// evaluator apply each event to a copy of the learner's state snapshot.
//
// The engine holds no mutable state of its own. Callers are responsible for
// serializing submissions per learner and for writing the produced snapshot
// and event records durably before exposing the result.
package progression
