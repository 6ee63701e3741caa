// Package minio provides a blobstore.Store implementation backed by MinIO.
//
// MinIO is an S3-compatible object storage system; the official MinIO Go
// client also works against other S3-compatible systems such as Ceph,
// SeaweedFS and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blobs := minioblob.NewStore(client, "recordings", "sessions/")
//	store, err := nixstore.New("exp42.nix", func(o *nixstore.Options) {
//	    o.Blobs = blobs
//	})
package minio
