package loadbalance

import (
	"github.com/hupe1980/trilist/internal/degree"
	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// VolumeFiles describes a Volume plan over graph files.
type VolumeFiles struct {
	// Base is the oriented graph.
	Base string
	// Unoriented is the undirected graph Base was oriented from; empty means
	// oriented degrees only.
	Unoriented string
	MemoryMiB  uint64
	Threads    int
	Chunks     int
	// Window is the degree window in IDs. Zero means
	// vertex.DefaultBufferWords.
	Window int
}

// PlanFiles opens the degree files of f and computes its Volume plan.
// Volume walks both degree files front to back, so windowed lookups are used.
func PlanFiles(fsys fs.FileSystem, f VolumeFiles) (*Plan, error) {
	window := f.Window
	if window == 0 {
		window = vertex.DefaultBufferWords
	}
	ori, err := degree.NewWindowed(fsys, vertex.DegName(f.Base), window)
	if err != nil {
		return nil, err
	}
	defer ori.Close()

	size, err := fs.Size(fsys, vertex.AdjName(f.Base))
	if err != nil {
		return nil, err
	}

	v := Volume{
		Oriented:  ori,
		Edges:     uint64(size) / vertex.Width,
		MemoryMiB: f.MemoryMiB,
		Threads:   max(f.Threads, 1),
		Chunks:    f.Chunks,
	}
	if f.Unoriented != "" && f.Unoriented != f.Base {
		un, err := degree.NewWindowed(fsys, vertex.DegName(f.Unoriented), window)
		if err != nil {
			return nil, err
		}
		defer un.Close()
		v.Unoriented = un
	}
	return v.Balance()
}
