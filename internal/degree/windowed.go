package degree

import (
	"errors"
	"io"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// Windowed serves degrees from a window of consecutive pairs.
// It is not safe for concurrent use.
type Windowed struct {
	f         fs.File
	graphSize uint64

	raw   []byte
	pairs []vertex.ID
	valid int // loaded IDs in pairs

	low, high vertex.ID
	loaded    bool

	reloads uint64
}

// NewWindowed opens path with a window of capacity IDs (rounded down to whole
// pairs) and loads the first window.
func NewWindowed(fsys fs.FileSystem, path string, capacity int) (*Windowed, error) {
	capacity &^= 1
	if capacity < 2 {
		return nil, ErrBufferTooSmall
	}
	f, err := fs.Open(fsys, path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := &Windowed{
		f:         f,
		graphSize: uint64(fi.Size()) / PairWidth,
		raw:       make([]byte, capacity*vertex.Width),
		pairs:     make([]vertex.ID, capacity),
	}
	w.update(0)
	return w, nil
}

// update reloads the window starting at pair lower.
func (w *Windowed) update(lower vertex.ID) bool {
	w.reloads++
	n, err := w.f.ReadAt(w.raw, int64(lower)*PairWidth)
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	words := (n / vertex.Width) &^ 1
	if words < 2 {
		return false
	}
	vertex.Decode(w.pairs[:words], w.raw[:words*vertex.Width])
	w.valid = words
	w.low = w.pairs[0]
	w.high = w.pairs[words-2]
	w.loaded = true
	return true
}

// Degree implements Lookup.
func (w *Windowed) Degree(v vertex.ID) vertex.ID {
	if !w.loaded || v < w.low || v > w.high {
		if !w.update(v) {
			return 0
		}
	}
	i := 2*int(v-w.low) + 1
	if i >= w.valid {
		return 0
	}
	return w.pairs[i]
}

// Window returns the currently loaded vertex range.
func (w *Windowed) Window() (low, high vertex.ID, ok bool) {
	return w.low, w.high, w.loaded
}

// Reloads returns how many times the window was (re)loaded.
func (w *Windowed) Reloads() uint64 { return w.reloads }

// GraphSize implements Lookup.
func (w *Windowed) GraphSize() uint64 { return w.graphSize }

// Close implements Lookup.
func (w *Windowed) Close() error { return w.f.Close() }
