package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalObjectStore keeps objects on the local filesystem under
// baseDir/bucket/key. It backs tests and single-machine deployments.
type LocalObjectStore struct {
	baseDir string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

func NewLocalObjectStore(dir string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	return &LocalObjectStore{baseDir: baseDir}, nil
}

func (s *LocalObjectStore) objectPath(bucket, key string) string {
	return filepath.Join(s.baseDir, bucket, filepath.FromSlash(key))
}

func (s *LocalObjectStore) CreateBucket(ctx context.Context, bucket string) error {
	if err := os.MkdirAll(filepath.Join(s.baseDir, bucket), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create bucket dir %s: %w", bucket, err)
	}
	return nil
}

func (s *LocalObjectStore) PutObject(ctx context.Context, bucket, key string, data io.Reader, contentType string) error {
	path := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s/%s: %w", bucket, key, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s/%s: %w", bucket, key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		return fmt.Errorf("failed to write file %s/%s: %w", bucket, key, err)
	}

	return nil
}

func (s *LocalObjectStore) UploadFile(ctx context.Context, localPath, bucket, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	if err := s.PutObject(ctx, bucket, key, file, ContentTypeForFile(localPath)); err != nil {
		return "", err
	}

	return s.ObjectURL(bucket, key), nil
}

func (s *LocalObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := os.Remove(s.objectPath(bucket, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *LocalObjectStore) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if _, err := os.Stat(s.objectPath(bucket, key)); err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", bucket, key, err)
	}

	expires := time.Now().Add(expiry).UTC().Unix()
	return fmt.Sprintf("%s?expires=%d", s.ObjectURL(bucket, key), expires), nil
}

func (s *LocalObjectStore) ObjectURL(bucket, key string) string {
	u := url.URL{
		Scheme: "file",
		Path:   strings.ReplaceAll(filepath.ToSlash(s.objectPath(bucket, key)), "//", "/"),
	}
	return u.String()
}
