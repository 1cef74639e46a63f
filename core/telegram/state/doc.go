// Package state keeps per-user conversation sessions in memory.
// It is domain-agnostic: the session type is a type parameter and the
// store only knows about user ids, timestamps and idle eviction.
package state
