package port

import (
	"context"
	"io"
)

// UploadInput describes one object to store.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// UploadOutput describes a stored object.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage is the archive for raw invoice XML, kept verbatim for
// audit and re-processing.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}
