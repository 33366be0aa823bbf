// Package filesystem provides types.FS implementations: the real OS
// filesystem for runs, and an afero-backed one so reconciliation logic
// can be exercised against an in-memory filesystem in tests.
package filesystem
