package trilist

import (
	"io"
	"time"

	"github.com/hupe1980/trilist/codec"
)

// Report is the machine-readable summary of a run.
type Report struct {
	Graph     string         `json:"graph"`
	Mode      string         `json:"mode"`
	Triangles uint64         `json:"triangles"`
	MaxDegree uint64         `json:"max_degree"`
	Peeled    []uint64       `json:"peeled,omitempty"`
	Output    string         `json:"output,omitempty"`
	Plan      PlanReport     `json:"plan"`
	Chunks    []ChunkReport  `json:"chunks"`
	Remote    []RemoteReport `json:"remote,omitempty"`
	Timings   TimingsReport  `json:"timings"`
}

// PlanReport summarizes the chunk plan.
type PlanReport struct {
	Chunks      int     `json:"chunks"`
	MeanEdges   float64 `json:"mean_edges"`
	StdDevEdges float64 `json:"stddev_edges"`
	MaxEdges    float64 `json:"max_edges"`
	Imbalance   float64 `json:"imbalance"`
}

// ChunkReport describes one chunk.
type ChunkReport struct {
	Index       int     `json:"index"`
	Low         uint64  `json:"low"`
	High        uint64  `json:"high"`
	MemoryBytes uint64  `json:"memory_bytes"`
	AvgDegree   float64 `json:"avg_degree"`
	Triangles   uint64  `json:"triangles"`
	Phases      int     `json:"phases"`
	Seconds     float64 `json:"seconds"`
}

// RemoteReport describes the share of one server of a distributed run.
type RemoteReport struct {
	Server        string  `json:"server"`
	First         int     `json:"first"`
	Count         int     `json:"count"`
	Triangles     uint64  `json:"triangles"`
	BytesSent     int64   `json:"bytes_sent"`
	BytesReceived int64   `json:"bytes_received"`
	Seconds       float64 `json:"seconds"`
}

// TimingsReport holds step durations in seconds.
type TimingsReport struct {
	Orient      float64 `json:"orient,omitempty"`
	Peel        float64 `json:"peel,omitempty"`
	Balance     float64 `json:"balance"`
	Count       float64 `json:"count"`
	Concatenate float64 `json:"concatenate,omitempty"`
	Total       float64 `json:"total"`
}

// NewPlanReport converts plan statistics.
func NewPlanReport(st PlanStats) PlanReport {
	return PlanReport{
		Chunks:      st.Chunks,
		MeanEdges:   st.MeanEdges,
		StdDevEdges: st.StdDevEdges,
		MaxEdges:    st.MaxEdges,
		Imbalance:   st.Imbalance,
	}
}

// NewChunkReports converts chunk statistics.
func NewChunkReports(stats []ChunkStat) []ChunkReport {
	out := make([]ChunkReport, len(stats))
	for i, st := range stats {
		out[i] = ChunkReport{
			Index:       st.Index,
			Low:         st.Low,
			High:        st.High,
			MemoryBytes: st.MemoryBytes,
			AvgDegree:   st.AvgDegree,
			Triangles:   st.Triangles,
			Phases:      st.Phases,
			Seconds:     st.Elapsed.Seconds(),
		}
	}
	return out
}

// PeeledReport widens peeled vertex IDs for the report.
func PeeledReport(ids []ID) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint64, len(ids))
	for i, v := range ids {
		out[i] = uint64(v)
	}
	return out
}

// Report returns the report of a local run.
func (r *Result) Report() *Report {
	return &Report{
		Graph:     r.Base,
		Mode:      "local",
		Triangles: r.Triangles,
		MaxDegree: uint64(r.MaxDegree),
		Peeled:    PeeledReport(r.Peeled),
		Output:    r.Output,
		Plan:      NewPlanReport(r.Plan),
		Chunks:    NewChunkReports(r.Chunks),
		Timings: TimingsReport{
			Orient:      r.Timings.Orient.Seconds(),
			Peel:        r.Timings.Peel.Seconds(),
			Balance:     r.Timings.Balance.Seconds(),
			Count:       r.Timings.Count.Seconds(),
			Concatenate: r.Timings.Concatenate.Seconds(),
			Total:       r.Elapsed.Seconds(),
		},
	}
}

// Elapsed returns the total run time.
func (r *Report) Elapsed() time.Duration {
	return time.Duration(r.Timings.Total * float64(time.Second))
}

// Encode marshals the report with c (codec.Default if nil).
func (r *Report) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(r)
}

// WriteTo writes the report with codec.Default followed by a newline.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	b, err := r.Encode(nil)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(b, '\n'))
	return int64(n), err
}

// DecodeReport unmarshals a report encoded with c (codec.Default if nil).
func DecodeReport(data []byte, c codec.Codec) (*Report, error) {
	if c == nil {
		c = codec.Default
	}
	var r Report
	if err := c.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
