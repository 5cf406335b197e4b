package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"instore-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStorePutAndDelete(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.CreateBucket(ctx, "images"))

	key := "ads/banner.png"
	require.NoError(t, store.PutObject(ctx, "images", key, strings.NewReader("png"), "image/png"))

	url := store.ObjectURL("images", key)
	assert.True(t, strings.HasPrefix(url, "file://"), "url %q", url)
	assert.Contains(t, url, "images/ads/banner.png")

	require.NoError(t, store.DeleteObject(ctx, "images", key))
	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteObject(ctx, "images", key))
}

func TestLocalObjectStoreUploadFile(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	localPath := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(localPath, []byte("video"), 0o644))

	url, err := store.UploadFile(context.Background(), localPath, "videos", "processed-videos/clip.mp4")
	require.NoError(t, err)
	assert.Contains(t, url, "videos/processed-videos/clip.mp4")
}

func TestLocalObjectStorePresign(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "videos", "a.mp4", strings.NewReader("video"), "video/mp4"))

	url, err := store.PresignGetObject(ctx, "videos", "a.mp4", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=")

	var expires int64
	_, err = fmt.Sscanf(url[strings.Index(url, "expires=")+len("expires="):], "%d", &expires)
	require.NoError(t, err)
	assert.Greater(t, expires, time.Now().Unix())

	_, err = store.PresignGetObject(ctx, "videos", "missing.mp4", time.Hour)
	assert.Error(t, err)
}

func TestContentTypeForFile(t *testing.T) {
	assert.Equal(t, "video/mp4", storage.ContentTypeForFile("a/b.mp4"))
	assert.Equal(t, "video/quicktime", storage.ContentTypeForFile("clip.mov"))
	assert.Equal(t, "image/png", storage.ContentTypeForFile("logo.png"))
	assert.Equal(t, "application/octet-stream", storage.ContentTypeForFile("data.unknownext"))
}
