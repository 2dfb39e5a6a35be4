package wire

import (
	"fmt"
	"io"

	"github.com/hupe1980/trilist/internal/fs"
	"github.com/hupe1980/trilist/internal/vertex"
)

// ChunkAssignment is one edge range a server must count.
type ChunkAssignment struct {
	// MemoryMiB is the engine budget for the chunk.
	MemoryMiB vertex.ID
	Low, High uint64
	AvgDegree float64
}

// Job is the request a master sends to a server.
type Job struct {
	MaxDegree vertex.ID
	Output    bool
	// DegFile and AdjFile are the files of the oriented graph. On the
	// sending side they are read, on the receiving side they are written.
	DegFile, AdjFile string
	Chunks           []ChunkAssignment
}

// WriteJob sends j, including both graph files, and returns the bytes of
// file payload written.
func WriteJob(w io.Writer, fsys fs.FileSystem, j *Job) (int64, error) {
	if err := WriteVertex(w, j.MaxDegree); err != nil {
		return 0, err
	}
	if err := WriteVertex(w, boolVertex(j.Output)); err != nil {
		return 0, err
	}
	deg, err := WriteFile(w, fsys, j.DegFile)
	if err != nil {
		return deg, fmt.Errorf("send degree file: %w", err)
	}
	adj, err := WriteFile(w, fsys, j.AdjFile)
	if err != nil {
		return deg + adj, fmt.Errorf("send adjacency file: %w", err)
	}
	n := deg + adj

	if err := WriteVertex(w, vertex.ID(len(j.Chunks))); err != nil {
		return n, err
	}
	for _, c := range j.Chunks {
		if err := WriteVertex(w, c.MemoryMiB); err != nil {
			return n, err
		}
		if err := WriteUint64(w, c.Low); err != nil {
			return n, err
		}
		if err := WriteUint64(w, c.High); err != nil {
			return n, err
		}
		if err := WriteFloat64Bits(w, c.AvgDegree); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadJob receives a job, storing its graph files under
// vertex.DegName(base) and vertex.AdjName(base).
func ReadJob(r io.Reader, fsys fs.FileSystem, base string) (*Job, int64, error) {
	j := &Job{DegFile: vertex.DegName(base), AdjFile: vertex.AdjName(base)}

	var err error
	if j.MaxDegree, err = ReadVertex(r); err != nil {
		return nil, 0, err
	}
	flag, err := ReadVertex(r)
	if err != nil {
		return nil, 0, err
	}
	j.Output = flag != 0

	deg, err := ReadFile(r, fsys, j.DegFile)
	if err != nil {
		return nil, deg, fmt.Errorf("receive degree file: %w", err)
	}
	adj, err := ReadFile(r, fsys, j.AdjFile)
	n := deg + adj
	if err != nil {
		return nil, n, fmt.Errorf("receive adjacency file: %w", err)
	}

	count, err := ReadVertex(r)
	if err != nil {
		return nil, n, err
	}
	if uint64(count) > MaxChunks {
		return nil, n, fmt.Errorf("%w: %d", ErrTooManyChunks, count)
	}
	j.Chunks = make([]ChunkAssignment, count)
	for i := range j.Chunks {
		c := &j.Chunks[i]
		if c.MemoryMiB, err = ReadVertex(r); err != nil {
			return nil, n, err
		}
		if c.Low, err = ReadUint64(r); err != nil {
			return nil, n, err
		}
		if c.High, err = ReadUint64(r); err != nil {
			return nil, n, err
		}
		if c.AvgDegree, err = ReadFloat64Bits(r); err != nil {
			return nil, n, err
		}
	}
	return j, n, nil
}

// WriteResult sends the triangle count followed, when out is not empty, by
// the triangle file.
func WriteResult(w io.Writer, fsys fs.FileSystem, triangles uint64, out string) (int64, error) {
	if err := WriteUint64(w, triangles); err != nil {
		return 0, err
	}
	if out == "" {
		return 0, nil
	}
	return WriteFile(w, fsys, out)
}

// ReadResult receives a server reply. When out is not empty the triangle
// file is stored there.
func ReadResult(r io.Reader, fsys fs.FileSystem, out string) (uint64, int64, error) {
	triangles, err := ReadUint64(r)
	if err != nil {
		return 0, 0, err
	}
	if out == "" {
		return triangles, 0, nil
	}
	n, err := ReadFile(r, fsys, out)
	return triangles, n, err
}

func boolVertex(b bool) vertex.ID {
	if b {
		return 1
	}
	return 0
}
