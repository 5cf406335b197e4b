package storage

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"time"
)

type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader, contentType string) error

	// UploadFile streams a local file to the bucket and returns the object's
	// public URL.
	UploadFile(ctx context.Context, localPath, bucket, key string) (string, error)

	DeleteObject(ctx context.Context, bucket, key string) error

	// PresignGetObject returns a time-bounded signed URL granting read access
	// to an otherwise private object.
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)

	ObjectURL(bucket, key string) string
}

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// ContentTypeForFile resolves a content type from the file extension,
// defaulting to application/octet-stream.
func ContentTypeForFile(path string) string {
	ext := filepath.Ext(path)
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
