package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// TransformJob describes one external-process composite invocation: overlay
// the logo onto the source video and write the result to OutputPath.
type TransformJob struct {
	// SourceRef is a remote URL or local path; ffmpeg reads both.
	SourceRef  string
	LogoPath   string
	OutputPath string
}

type Transformer interface {
	Composite(ctx context.Context, job TransformJob) error
}

// FFmpegTransformer shells out to ffmpeg. The logo is scaled to 1/7 of its
// dimensions (aspect preserved) and overlaid top-right with a 10px margin for
// the full duration; video re-encodes with a fast x264 preset, audio passes
// through untouched.
type FFmpegTransformer struct {
	binary  string
	timeout time.Duration
}

var _ Transformer = (*FFmpegTransformer)(nil)

func NewFFmpegTransformer(binary string, timeout time.Duration) *FFmpegTransformer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTransformer{binary: binary, timeout: timeout}
}

func compositeArgs(job TransformJob) []string {
	return []string{
		"-i", job.SourceRef,
		"-i", job.LogoPath,
		"-filter_complex", "[1:v]scale=iw/7:ih/7[logo];[0:v][logo]overlay=main_w-overlay_w-10:10",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-threads", "2",
		"-c:a", "copy",
		"-y",
		job.OutputPath,
	}
}

func (t *FFmpegTransformer) Composite(ctx context.Context, job TransformJob) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := compositeArgs(job)
	slog.Info("running ffmpeg composite", "source", job.SourceRef, "output", job.OutputPath)

	cmd := exec.CommandContext(ctx, t.binary, args...)
	// Without WaitDelay a killed ffmpeg whose children still hold the output
	// pipes would block CombinedOutput past the deadline.
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg composite timed out after %v: %w", t.timeout, ctx.Err())
		}
		return fmt.Errorf("ffmpeg composite failed: %w, output: %s", err, string(output))
	}

	slog.Debug("ffmpeg composite finished", "output", job.OutputPath)
	return nil
}
