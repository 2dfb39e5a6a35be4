package prep

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// Stats describes a written graph.
type Stats struct {
	Vertices  uint64
	Edges     uint64
	MaxDegree vertex.ID
}

// ParseError reports a malformed input line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseEdgeList reads a SNAP-style edge list ("u v" per line, lines starting
// with # or % are comments, extra columns are ignored) and writes it as a
// directed graph to base. Duplicate edges and self-loops are dropped; the
// input need not be sorted. The neighbor sets are held in memory.
func ParseEdgeList(r io.Reader, fsys fs.FileSystem, base string, opts ...WriterOption) (Stats, error) {
	var sets neighborSets

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' || text[0] == '%' {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return Stats{}, &ParseError{Line: line, Text: text, Err: fmt.Errorf("want two vertices, got %d fields", len(fields))}
		}
		from, err := parseVertex(fields[0])
		if err != nil {
			return Stats{}, &ParseError{Line: line, Text: text, Err: err}
		}
		to, err := parseVertex(fields[1])
		if err != nil {
			return Stats{}, &ParseError{Line: line, Text: text, Err: err}
		}
		if from == to {
			continue
		}
		sets.add(from, to)
		sets.grow(uint64(to) + 1)
	}
	if err := sc.Err(); err != nil {
		return Stats{}, err
	}
	return writeSets(&sets, fsys, base, opts)
}

func parseVertex(s string) (vertex.ID, error) {
	u, err := strconv.ParseUint(s, 10, vertex.Width*8)
	if err != nil {
		return 0, err
	}
	if vertex.ID(u) == vertex.Uninit {
		return 0, fmt.Errorf("vertex %d is reserved", u)
	}
	return vertex.ID(u), nil
}

func writeSets(sets *neighborSets, fsys fs.FileSystem, base string, opts []WriterOption) (Stats, error) {
	w, err := NewWriter(fsys, base, append(opts, WithVertexCount(sets.vertices()))...)
	if err != nil {
		return Stats{}, err
	}
	if err := sets.write(w); err != nil {
		_ = w.Close()
		return Stats{}, err
	}
	if err := w.Close(); err != nil {
		return Stats{}, err
	}
	return Stats{Vertices: sets.vertices(), Edges: w.Edges(), MaxDegree: w.MaxDegree()}, nil
}
