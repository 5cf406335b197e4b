package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeArgs(t *testing.T) {
	job := TransformJob{
		SourceRef:  "https://example.com/clip.mov",
		LogoPath:   "/tmp/staging/logo.png",
		OutputPath: "/tmp/staging/out.mov",
	}

	args := compositeArgs(job)

	assert.Equal(t, []string{"-i", "https://example.com/clip.mov"}, args[0:2])
	assert.Equal(t, []string{"-i", "/tmp/staging/logo.png"}, args[2:4])
	assert.Contains(t, args, "[1:v]scale=iw/7:ih/7[logo];[0:v][logo]overlay=main_w-overlay_w-10:10")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "veryfast")
	assert.Equal(t, "/tmp/staging/out.mov", args[len(args)-1])

	// Audio must pass through unmodified.
	for i, arg := range args {
		if arg == "-c:a" {
			assert.Equal(t, "copy", args[i+1])
		}
	}
}

func TestCompositeFailsOnBadBinary(t *testing.T) {
	tr := NewFFmpegTransformer("definitely-not-a-real-binary", 0)

	err := tr.Composite(context.Background(), TransformJob{
		SourceRef:  "in.mp4",
		LogoPath:   "logo.png",
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	require.Error(t, err)
}

func TestCompositeTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a unix shell script")
	}

	// Stand in a hung ffmpeg to exercise the deadline.
	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755))

	tr := NewFFmpegTransformer(script, 100*time.Millisecond)

	start := time.Now()
	err := tr.Composite(context.Background(), TransformJob{SourceRef: "in.mp4", LogoPath: "logo.png", OutputPath: "out.mp4"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, err.Error(), "timed out")
}
