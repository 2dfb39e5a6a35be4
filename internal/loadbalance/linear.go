package loadbalance

// Linear splits the edges into Chunks equal ranges.
type Linear struct {
	Edges    uint64
	Vertices uint64
	Chunks   int
}

// Balance implements Strategy.
func (l Linear) Balance() (*Plan, error) {
	return even(l.Edges, l.Vertices, l.Chunks)
}

// Coefficient is Linear with Threads*Coefficient chunks, giving a pool finer
// units of work than it has threads.
type Coefficient struct {
	Edges       uint64
	Vertices    uint64
	Threads     int
	Coefficient float64
}

// Balance implements Strategy.
func (c Coefficient) Balance() (*Plan, error) {
	return even(c.Edges, c.Vertices, int(float64(c.Threads)*c.Coefficient))
}
