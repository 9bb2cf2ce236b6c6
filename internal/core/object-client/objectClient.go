package objectclient

import (
	"context"
)

// ObjectClient defines interactions with S3 or any object storage.
// It’s abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
