package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/trilist/internal/fs"
)

const copyBufferSize = 1 << 20

// Publish uploads the file at path, read through fsys, to store under name.
// It returns the number of bytes written. A nil fsys means the local file
// system.
func Publish(ctx context.Context, store Store, name string, fsys fs.FileSystem, path string) (int64, error) {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", path, err)
	}
	defer f.Close()

	n, err := Upload(ctx, store, name, f)
	if err != nil {
		return n, fmt.Errorf("publish %s: %w", path, err)
	}
	return n, nil
}

// PublishBytes uploads data to store under name.
func PublishBytes(ctx context.Context, store Store, name string, data []byte) error {
	_, err := Upload(ctx, store, name, bytes.NewReader(data))
	return err
}

// Upload streams r into a new blob. The blob is only committed when the copy
// succeeds.
func Upload(ctx context.Context, store Store, name string, r io.Reader) (int64, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	n, err := io.CopyBuffer(w, contextReader{ctx: ctx, r: r}, make([]byte, copyBufferSize))
	if err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
			_ = store.Delete(ctx, name)
		}
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, err
	}
	return n, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
