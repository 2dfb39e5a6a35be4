package vxio

import (
	"errors"
	"io"
	iofs "io/fs"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

const copyBufferSize = 1 << 20

// Concatenate writes name as the in-order concatenation of the shards
// name-0 .. name-(count-1). Missing and empty shards are skipped.
func Concatenate(fsys fs.FileSystem, name string, count int) error {
	srcs := make([]string, count)
	for i := range srcs {
		srcs[i] = vertex.ShardName(name, i)
	}
	return ConcatenateFiles(fsys, name, srcs)
}

// ConcatenateFiles writes dst as the in-order concatenation of srcs.
// Missing and empty sources are skipped without separators.
func ConcatenateFiles(fsys fs.FileSystem, dst string, srcs []string) error {
	out, err := fs.Create(fsys, dst)
	if err != nil {
		return err
	}
	buf := make([]byte, copyBufferSize)
	for _, src := range srcs {
		if err := appendFile(fsys, out, src, buf); err != nil {
			_ = out.Close()
			return err
		}
	}
	return out.Close()
}

func appendFile(fsys fs.FileSystem, out io.Writer, src string, buf []byte) error {
	in, err := fs.Open(fsys, src)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.CopyBuffer(out, struct{ io.Reader }{in}, buf)
	return err
}

// RemoveShards deletes name-0 .. name-(count-1), ignoring missing shards.
func RemoveShards(fsys fs.FileSystem, name string, count int) error {
	var errs []error
	for i := 0; i < count; i++ {
		err := fs.Or(fsys).Remove(vertex.ShardName(name, i))
		if err != nil && !errors.Is(err, iofs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
