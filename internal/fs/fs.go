package fs

import (
	"io"
	"os"
)

// File represents an open graph, degree or shard file.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts the file operations used by scanners, writers and the
// transfer code.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	// Rename moves oldpath to newpath, replacing newpath if it exists.
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error              { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error  { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}

// Or returns fsys, or Default if fsys is nil.
func Or(fsys FileSystem) FileSystem {
	if fsys == nil {
		return Default
	}
	return fsys
}

// Open opens name read-only.
func Open(fsys FileSystem, name string) (File, error) {
	return Or(fsys).OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates name for writing.
func Create(fsys FileSystem, name string) (File, error) {
	return Or(fsys).OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

// Size returns the size of name in bytes.
func Size(fsys FileSystem, name string) (int64, error) {
	fi, err := Or(fsys).Stat(name)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
