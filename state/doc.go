// Package state provides the single mutable container a store's state
// lives in, plus the emission policies that decide what happens to a
// reducer's result.
//
// The container owns the canonical value and the stream of published
// snapshots. The two can differ: a policy may commit a new value without
// publishing it, in which case Value reflects the commit while the stream
// still carries the last published snapshot.
package state
