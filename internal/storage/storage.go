package storage

import "context"

// Service moves single files to and from remote object storage.
type Service interface {
	// UploadFile stores a local file under bucket/key.
	UploadFile(ctx context.Context, bucket, key, localPath string) error
	// DownloadFile fetches bucket/key into localPath. It returns false
	// without error when the object does not exist.
	DownloadFile(ctx context.Context, bucket, key, localPath string) (bool, error)
}
