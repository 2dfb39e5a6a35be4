package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps published artifacts in memory. A committed artifact is
// never modified in place; recreating a name swaps in a new slice, so open
// blobs keep reading the generation they were opened on.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string][]byte)}
}

// Open implements Store.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	data, ok := m.artifacts[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return memoryBlob{bytes.NewReader(data)}, nil
}

// Create implements Store. The artifact is committed on Close and discarded
// on Abort.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryUpload{store: m, name: name}, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.artifacts, name)
	m.mu.Unlock()
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.artifacts))
	for name := range m.artifacts {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Bytes returns the committed content of name.
func (m *MemoryStore) Bytes(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.artifacts[name]
	return slices.Clone(data), ok
}

func (m *MemoryStore) commit(name string, data []byte) {
	m.mu.Lock()
	m.artifacts[name] = data
	m.mu.Unlock()
}

type memoryBlob struct {
	r *bytes.Reader
}

func (b memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.r.ReadAt(p, off)
}

func (b memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.r.Size() {
		return nil, io.EOF
	}
	return io.NopCloser(io.NewSectionReader(b.r, off, length)), nil
}

func (b memoryBlob) Size() int64 { return b.r.Size() }

func (memoryBlob) Close() error { return nil }

// memoryUpload buffers an artifact until it is committed.
type memoryUpload struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (u *memoryUpload) Write(p []byte) (int, error) {
	if u.done {
		return 0, os.ErrClosed
	}
	return u.buf.Write(p)
}

func (u *memoryUpload) Sync() error { return nil }

func (u *memoryUpload) Close() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.commit(u.name, bytes.Clone(u.buf.Bytes()))
	return nil
}

// Abort drops the buffered content without committing it.
func (u *memoryUpload) Abort() error {
	u.done = true
	u.buf.Reset()
	return nil
}
