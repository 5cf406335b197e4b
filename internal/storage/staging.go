package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	// ErrNoFile indicates the expected multipart field was absent.
	ErrNoFile = errors.New("no file provided")
	// ErrPayloadTooLarge indicates an upload exceeded the staging size ceiling.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum allowed size")
)

// StagingArea is the local ephemeral location for files mid-pipeline. Staged
// names are collision resistant (fresh uuid + original extension), so no two
// requests contend over the same path.
type StagingArea struct {
	dir      string
	maxBytes int64
}

func NewStagingArea(dir string, maxBytes int64) (*StagingArea, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &StagingArea{dir: dir, maxBytes: maxBytes}, nil
}

func (s *StagingArea) Dir() string {
	return s.dir
}

// Allocate reserves a fresh path in the staging area without creating the
// file. The extension includes the leading dot.
func (s *StagingArea) Allocate(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+ext)
}

// StageMultipart persists the named multipart field to the staging area and
// returns the staged path.
func (s *StagingArea) StageMultipart(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", ErrNoFile
		}
		return "", fmt.Errorf("failed to read multipart field %s: %w", field, err)
	}
	defer file.Close()

	return s.StageReader(header.Filename, file)
}

// StageFileHeader persists an already-parsed multipart file, used when a
// handler accepts several files from one form.
func (s *StagingArea) StageFileHeader(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open multipart file %s: %w", header.Filename, err)
	}
	defer file.Close()

	return s.StageReader(header.Filename, file)
}

// StageReader writes data to a freshly named file, enforcing the size
// ceiling. Partial files are removed on failure.
func (s *StagingArea) StageReader(originalName string, data io.Reader) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString()+filepath.Ext(originalName))

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file %s: %w", path, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(data, s.maxBytes+1))
	if err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staged file %s: %w", path, err)
	}
	if written > s.maxBytes {
		dst.Close()
		os.Remove(path)
		return "", ErrPayloadTooLarge
	}

	return path, nil
}

// Remove deletes staged files best effort. Cleanup never escalates: failures
// are logged and swallowed so they cannot override a primary result.
func (s *StagingArea) Remove(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove staged file", "path", path, "error", err)
		}
	}
}
