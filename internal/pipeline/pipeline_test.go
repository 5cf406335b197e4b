package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"instore-backend/internal/media"
	"instore-backend/internal/pipeline"
	"instore-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransformer struct {
	err  error
	jobs []media.TransformJob
}

func (f *fakeTransformer) Composite(ctx context.Context, job media.TransformJob) error {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return f.err
	}
	// Produce an output file like ffmpeg would.
	return os.WriteFile(job.OutputPath, []byte("composite"), 0o644)
}

type fakeObjectStore struct {
	uploadErr  error
	presignErr error

	uploads       map[string]string // key -> local path contents
	deletes       []string
	presignExpiry time.Duration
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploads: make(map[string]string)}
}

func (f *fakeObjectStore) CreateBucket(ctx context.Context, bucket string) error { return nil }

func (f *fakeObjectStore) PutObject(ctx context.Context, bucket, key string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.uploads[key] = string(body)
	return nil
}

func (f *fakeObjectStore) UploadFile(ctx context.Context, localPath, bucket, key string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	body, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	f.uploads[key] = string(body)
	return f.ObjectURL(bucket, key), nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	f.deletes = append(f.deletes, key)
	delete(f.uploads, key)
	return nil
}

func (f *fakeObjectStore) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presignExpiry = expiry
	return fmt.Sprintf("https://signed.example.com/%s/%s?sig=abc", bucket, key), nil
}

func (f *fakeObjectStore) ObjectURL(bucket, key string) string {
	return fmt.Sprintf("https://store.example.com/%s/%s", bucket, key)
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) Send(to []string, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to...)
	return nil
}

func stageLogo(t *testing.T, staging *storage.StagingArea) string {
	t.Helper()
	path, err := staging.StageReader("logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	return path
}

func setup(t *testing.T) (*storage.StagingArea, *fakeTransformer, *fakeObjectStore, *fakeMailer, *pipeline.Pipeline) {
	t.Helper()
	staging, err := storage.NewStagingArea(t.TempDir(), 1<<20)
	require.NoError(t, err)

	transformer := &fakeTransformer{}
	store := newFakeObjectStore()
	mailer := &fakeMailer{}
	p := pipeline.New(staging, transformer, store, mailer, "videos")
	return staging, transformer, store, mailer, p
}

func stagedFiles(t *testing.T, staging *storage.StagingArea) []string {
	t.Helper()
	entries, err := os.ReadDir(staging.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunHappyPath(t *testing.T) {
	staging, transformer, store, mailer, p := setup(t)
	logo := stageLogo(t, staging)

	result, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://cdn.example.com/source.mp4",
		LogoPath: logo,
		Email:    "user@example.com",
	})
	require.NoError(t, err)

	assert.True(t, result.Notified)
	assert.True(t, strings.HasPrefix(result.ObjectKey, "processed-videos/"), "key %q", result.ObjectKey)
	assert.True(t, strings.HasSuffix(result.ObjectKey, ".mp4"))
	assert.Contains(t, result.DownloadURL, "sig=abc")
	assert.WithinDuration(t, time.Now().Add(pipeline.DownloadLinkExpiry), result.ExpiresAt, time.Minute)

	require.Len(t, transformer.jobs, 1)
	assert.Equal(t, "https://cdn.example.com/source.mp4", transformer.jobs[0].SourceRef)
	assert.Equal(t, logo, transformer.jobs[0].LogoPath)

	assert.Equal(t, "composite", store.uploads[result.ObjectKey])
	assert.Equal(t, pipeline.DownloadLinkExpiry, store.presignExpiry)
	assert.Equal(t, []string{"user@example.com"}, mailer.sent)

	// Both the staged logo and the composite output are gone.
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunOutputExtensionMirrorsSource(t *testing.T) {
	staging, _, _, _, p := setup(t)
	logo := stageLogo(t, staging)

	result, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://cdn.example.com/clip.MOV?token=1",
		LogoPath: logo,
		Email:    "user@example.com",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.ObjectKey, ".mov"), "key %q", result.ObjectKey)
}

func TestRunWithUploadedVideoFile(t *testing.T) {
	staging, transformer, store, mailer, p := setup(t)
	logo := stageLogo(t, staging)
	source, err := staging.StageReader("clip.mov", strings.NewReader("mov-bytes"))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), pipeline.Request{
		VideoPath: source,
		LogoPath:  logo,
		Email:     "user@example.com",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(result.ObjectKey, ".mov"), "key %q", result.ObjectKey)
	require.Len(t, transformer.jobs, 1)
	assert.Equal(t, source, transformer.jobs[0].SourceRef)
	assert.Equal(t, "composite", store.uploads[result.ObjectKey])
	assert.Equal(t, []string{"user@example.com"}, mailer.sent)

	// Logo, staged source and the composite output are all gone.
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		req  pipeline.Request
	}{
		{"missing logo", pipeline.Request{VideoURL: "https://x.com/v.mp4", Email: "a@b.com"}},
		{"missing video source", pipeline.Request{LogoPath: "logo", Email: "a@b.com"}},
		{"both url and file", pipeline.Request{LogoPath: "logo", VideoURL: "https://x.com/v.mp4", VideoPath: "/tmp/v.mp4", Email: "a@b.com"}},
		{"malformed video url", pipeline.Request{LogoPath: "logo", VideoURL: "not a url", Email: "a@b.com"}},
		{"bad email", pipeline.Request{LogoPath: "logo", VideoURL: "https://x.com/v.mp4", Email: "not-an-email"}},
		{"email missing domain", pipeline.Request{LogoPath: "logo", VideoURL: "https://x.com/v.mp4", Email: "a@b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, transformer, _, _, p := setup(t)
			_, err := p.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, pipeline.ErrInvalidRequest)
			assert.Empty(t, transformer.jobs, "transform must not run on invalid input")
		})
	}
}

func TestRunValidationCleansUpStagedLogo(t *testing.T) {
	staging, _, _, _, p := setup(t)
	logo := stageLogo(t, staging)

	_, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://x.com/v.mp4",
		LogoPath: logo,
		Email:    "bad-email",
	})
	assert.ErrorIs(t, err, pipeline.ErrInvalidRequest)
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunTransformFailure(t *testing.T) {
	staging, transformer, store, mailer, p := setup(t)
	transformer.err = fmt.Errorf("ffmpeg exploded")
	logo := stageLogo(t, staging)

	_, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://x.com/v.mp4",
		LogoPath: logo,
		Email:    "a@b.com",
	})
	assert.ErrorIs(t, err, pipeline.ErrTransformFailed)
	assert.Empty(t, store.uploads)
	assert.Empty(t, mailer.sent)
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunPublishFailure(t *testing.T) {
	staging, _, store, mailer, p := setup(t)
	store.uploadErr = fmt.Errorf("s3 unavailable")
	logo := stageLogo(t, staging)

	_, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://x.com/v.mp4",
		LogoPath: logo,
		Email:    "a@b.com",
	})
	assert.ErrorIs(t, err, pipeline.ErrPublishFailed)
	assert.Empty(t, mailer.sent)
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunPresignFailure(t *testing.T) {
	staging, _, store, _, p := setup(t)
	store.presignErr = fmt.Errorf("signing broken")
	logo := stageLogo(t, staging)

	_, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://x.com/v.mp4",
		LogoPath: logo,
		Email:    "a@b.com",
	})
	assert.ErrorIs(t, err, pipeline.ErrPublishFailed)
	assert.Empty(t, stagedFiles(t, staging))
}

func TestRunNotificationFailureKeepsPublish(t *testing.T) {
	staging, _, store, mailer, p := setup(t)
	mailer.err = fmt.Errorf("smtp down")
	logo := stageLogo(t, staging)

	result, err := p.Run(context.Background(), pipeline.Request{
		VideoURL: "https://x.com/v.mp4",
		LogoPath: logo,
		Email:    "a@b.com",
	})
	assert.ErrorIs(t, err, pipeline.ErrNotificationFailed)

	// The publish survives: the object stays put and the link is returned.
	assert.False(t, result.Notified)
	assert.NotEmpty(t, result.DownloadURL)
	assert.Contains(t, store.uploads, result.ObjectKey)
	assert.Empty(t, store.deletes)
	assert.Empty(t, stagedFiles(t, staging))
}
