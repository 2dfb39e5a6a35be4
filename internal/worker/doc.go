// Package worker runs the chunks of a plan on a fixed pool of goroutines.
//
// Workers claim the next chunk index under a mutex, build an engine whose
// memory is the chunk's share of the pool budget, run it to completion and
// keep a local triangle count that is added to the shared total once, when
// the worker exits.
package worker
