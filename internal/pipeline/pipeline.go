package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"instore-backend/internal/mail"
	"instore-backend/internal/media"
	"instore-backend/internal/storage"
)

const (
	// ProcessedPrefix is the object key prefix for finished composites.
	ProcessedPrefix = "processed-videos"

	// DownloadLinkExpiry bounds how long a notification link stays valid.
	DownloadLinkExpiry = 7 * 24 * time.Hour
)

var (
	// ErrInvalidRequest marks input the caller can fix.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTransformFailed marks a failure while compositing the video.
	ErrTransformFailed = errors.New("video transform failed")
	// ErrPublishFailed marks a failure uploading or signing the result.
	ErrPublishFailed = errors.New("video publish failed")
	// ErrNotificationFailed marks a delivery failure after a successful
	// publish. The result still carries a usable download link.
	ErrNotificationFailed = errors.New("notification failed")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Request is one video processing job: overlay the staged logo onto the
// source video and tell Email where to fetch the result. The source is
// either a remote VideoURL or an already staged VideoPath, never both.
type Request struct {
	VideoURL  string
	VideoPath string
	LogoPath  string
	Email     string
}

func (r Request) sourceRef() string {
	if r.VideoPath != "" {
		return r.VideoPath
	}
	return r.VideoURL
}

// Result reports where the composite landed. Notified is false when the
// publish succeeded but the email could not be delivered.
type Result struct {
	ObjectKey   string
	DownloadURL string
	ExpiresAt   time.Time
	Notified    bool
}

// Pipeline runs the logo overlay flow: validate, composite with ffmpeg,
// upload to object storage, email a presigned link, then clean up local
// files regardless of outcome.
type Pipeline struct {
	staging     *storage.StagingArea
	transformer media.Transformer
	store       storage.ObjectStore
	mailer      mail.Mailer
	bucket      string
}

func New(staging *storage.StagingArea, transformer media.Transformer, store storage.ObjectStore, mailer mail.Mailer, bucket string) *Pipeline {
	return &Pipeline{
		staging:     staging,
		transformer: transformer,
		store:       store,
		mailer:      mailer,
		bucket:      bucket,
	}
}

// Run executes the pipeline for one request. Local files (the staged logo
// and the composite output) are always removed before returning. A
// notification failure does not undo the publish: the caller gets the
// result along with ErrNotificationFailed.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := p.Validate(req); err != nil {
		p.staging.Remove(req.LogoPath, req.VideoPath)
		return Result{}, err
	}

	outputPath := p.staging.Allocate(outputExt(req.sourceRef()))
	defer p.staging.Remove(req.LogoPath, req.VideoPath, outputPath)

	if err := p.transform(ctx, req, outputPath); err != nil {
		return Result{}, err
	}

	result, err := p.publish(ctx, outputPath)
	if err != nil {
		return Result{}, err
	}

	if err := p.notify(req.Email, result); err != nil {
		return result, err
	}
	result.Notified = true

	return result, nil
}

// Validate checks the request before any expensive work happens.
func (p *Pipeline) Validate(req Request) error {
	if req.LogoPath == "" {
		return fmt.Errorf("%w: logo file is required", ErrInvalidRequest)
	}
	if req.VideoURL == "" && req.VideoPath == "" {
		return fmt.Errorf("%w: a video url or video file is required", ErrInvalidRequest)
	}
	if req.VideoURL != "" && req.VideoPath != "" {
		return fmt.Errorf("%w: provide either a video url or a video file, not both", ErrInvalidRequest)
	}
	if req.VideoURL != "" {
		if parsed, err := url.Parse(req.VideoURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: video url %q is not a valid url", ErrInvalidRequest, req.VideoURL)
		}
	}
	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: email address %q is not valid", ErrInvalidRequest, req.Email)
	}
	return nil
}

func (p *Pipeline) transform(ctx context.Context, req Request, outputPath string) error {
	err := p.transformer.Composite(ctx, media.TransformJob{
		SourceRef:  req.sourceRef(),
		LogoPath:   req.LogoPath,
		OutputPath: outputPath,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransformFailed, err)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, outputPath string) (Result, error) {
	key := path.Join(ProcessedPrefix, filepath.Base(outputPath))

	if _, err := p.store.UploadFile(ctx, outputPath, p.bucket, key); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	downloadURL, err := p.store.PresignGetObject(ctx, p.bucket, key, DownloadLinkExpiry)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	return Result{
		ObjectKey:   key,
		DownloadURL: downloadURL,
		ExpiresAt:   time.Now().Add(DownloadLinkExpiry),
	}, nil
}

func (p *Pipeline) notify(email string, result Result) error {
	body, err := mail.RenderProcessedVideo(mail.ProcessedVideoEmail{
		DownloadURL: result.DownloadURL,
		ExpiresAt:   result.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if err := p.mailer.Send([]string{email}, "Your video is ready", body); err != nil {
		slog.Error("processed video email failed, download link remains valid", "email", email, "key", result.ObjectKey, "error", err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

// outputExt mirrors the source container: .mov stays .mov, everything else
// becomes .mp4.
func outputExt(source string) string {
	trimmed := source
	if parsed, err := url.Parse(source); err == nil && parsed.Path != "" {
		trimmed = parsed.Path
	}
	if strings.EqualFold(filepath.Ext(trimmed), ".mov") {
		return ".mov"
	}
	return ".mp4"
}
