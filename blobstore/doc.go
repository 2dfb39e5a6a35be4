// Package blobstore provides the storage abstraction used to publish the
// results of a triangle listing run.
//
// A Store receives the concatenated triangle file and the run report once a
// count finishes. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap reads and atomic renames
//   - MemoryStore: In-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Publishing
//
//	store := blobstore.NewLocalStore("/srv/results")
//	n, err := blobstore.Publish(ctx, store, "twitter/triangles", nil, "twitter-out")
package blobstore
