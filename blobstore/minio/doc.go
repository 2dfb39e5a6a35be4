// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible storage systems.
//
// # Basic Usage
//
//	store, err := minioblob.Dial(ctx, "localhost:9000", "minioadmin", "minioadmin", false, "results", "trilist/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = blobstore.Publish(ctx, store, "twitter/triangles", nil, "twitter-out")
//
// # Features
//
//   - Streaming uploads of unknown size
//   - Range reads
//   - No AWS SDK dependency
package minio
