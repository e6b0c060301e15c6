// Package store persists run-scoped and configuration-scoped variables on
// behalf of the execution engine. The engine decides when a write is
// skipped (dry runs never persist run-level values); the store itself is
// policy-free.
package store
