package degree

import (
	"errors"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// ErrBufferTooSmall is returned when a window cannot hold a single pair.
var ErrBufferTooSmall = errors.New("degree: buffer must hold at least one pair")

// PairWidth is the encoded size of one (vertex, degree) pair.
const PairWidth = 2 * vertex.Width

// Lookup reports vertex degrees.
type Lookup interface {
	// Degree returns the degree of v, or 0 if v lies outside the graph.
	Degree(v vertex.ID) vertex.ID
	// GraphSize returns the number of vertices covered by the degree file.
	GraphSize() uint64
	Close() error
}

// GraphSize returns the number of vertices described by the degree file.
func GraphSize(fsys fs.FileSystem, path string) (uint64, error) {
	size, err := fs.Size(fsys, path)
	if err != nil {
		return 0, err
	}
	return uint64(size) / PairWidth, nil
}

// Open opens path with the windowed lookup when the whole file fits in
// budgetWords IDs (or budgetWords is 0), and with the direct lookup otherwise.
func Open(fsys fs.FileSystem, path string, budgetWords int) (Lookup, error) {
	size, err := fs.Size(fsys, path)
	if err != nil {
		return nil, err
	}
	words := int(size / vertex.Width)
	if budgetWords == 0 || words <= budgetWords {
		if words < 2 {
			words = 2
		}
		return NewWindowed(fsys, path, words)
	}
	return NewDirect(fsys, path)
}

// OpenShared opens a lookup that many goroutines may query concurrently:
// mapped when the file fits in budgetWords IDs, direct otherwise.
func OpenShared(fsys fs.FileSystem, path string, budgetWords int) (Lookup, error) {
	size, err := fs.Size(fsys, path)
	if err != nil {
		return nil, err
	}
	if _, local := fs.Or(fsys).(fs.LocalFS); local && (budgetWords == 0 || int(size/vertex.Width) <= budgetWords) {
		return NewMapped(path)
	}
	return NewDirect(fsys, path)
}
