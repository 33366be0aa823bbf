// Package types defines the core data model shared across rig: declared
// package specs, dotfile mappings, the filesystem seam, and the run
// report that every reconciliation operation is threaded through.
package types
