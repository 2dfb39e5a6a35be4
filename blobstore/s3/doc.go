// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("trilist/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	_, err = blobstore.Publish(ctx, store, "twitter/triangles", nil, "twitter-out")
//
// # Features
//
//   - Streaming multipart uploads through the s3/manager uploader
//   - CRC32C checksums on upload
//   - Range reads for partial fetches
//   - Automatic pagination for listing
package s3
