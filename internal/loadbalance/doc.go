// Package loadbalance splits the edge-offset space of an oriented adjacency
// file into chunks.
//
// A Plan has N+1 non-decreasing boundaries, starting at 0 and ending at the
// edge count, and one average-degree estimate per chunk that sizes the
// engine processing it. Linear and Coefficient cut equal edge ranges;
// Volume weighs every vertex by the work an engine pass over it costs.
package loadbalance
