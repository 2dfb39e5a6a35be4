// Package cluster distributes a triangle count over several machines.
//
// A Master splits the oriented graph into a Volume plan with one chunk per
// instance, ships the graph and a consecutive run of chunks to every server,
// counts its own share locally and sums the replies. A Server handles one
// master connection at a time.
//
// There is no partition tolerance: any failed connection fails the job.
package cluster
