package types

import "io/fs"

// FS abstracts filesystem operations so reconciliation logic can run
// against the real filesystem or an in-memory one in tests.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error

	// Lstat is used to detect existing symlinks without following them.
	// Implementations without symlink support may fall back to Stat.
	Lstat(name string) (fs.FileInfo, error)
}
