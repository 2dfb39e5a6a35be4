// Package vxio provides buffered binary I/O of vertex IDs.
//
// [Writer] batches IDs and writes them to disk in large blocks, retrying short
// writes until the buffer drains. [BlockReader] reads IDs sequentially in
// fixed-size blocks and treats a short read as end-of-stream. [Concatenate]
// joins per-worker output shards in index order.
package vxio
