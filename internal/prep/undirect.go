package prep

import (
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/scan"
	"github.com/hupe1980/trilist/internal/vertex"
)

// undirector collects both directions of every edge.
type undirector struct {
	sets neighborSets
}

func (u *undirector) OverallSetUp() error { return nil }
func (u *undirector) PhaseSetUp() error   { return nil }
func (u *undirector) ProcessPhase() error { return nil }

func (u *undirector) HandleEdge(from, to, _ vertex.ID) scan.Verdict {
	if from != to {
		u.sets.add(from, to)
		u.sets.add(to, from)
	}
	return scan.Accept
}

func (u *undirector) OverallTearDown() error { return nil }

// Undirect writes the symmetric closure of the graph in to out: every edge
// appears in both neighbor lists, lists are sorted and free of duplicates
// and self-loops. The neighbor sets are held in memory.
func Undirect(fsys fs.FileSystem, in, out string, opts ...WriterOption) (Stats, error) {
	s, err := scan.Open(fsys, in)
	if err != nil {
		return Stats{}, err
	}
	defer s.Close()

	h := &undirector{}
	h.sets.grow(s.GraphSize())
	if err := s.Scan(0, vertex.MaxEdges, h); err != nil {
		return Stats{}, err
	}
	return writeSets(&h.sets, fsys, out, opts)
}
