package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"instore-backend/internal/database"
	"instore-backend/internal/pipeline"
	"instore-backend/internal/storage"
	"instore-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func videoToApi(video database.Video) api.Video {
	return api.Video{
		Id:           video.Id,
		Title:        video.Title,
		LogoUrl:      video.LogoUrl,
		Url:          video.Url,
		CreationTime: video.CreationTime,
	}
}

func (s *BackendService) ListVideos(r *http.Request) (any, error) {
	var videos []database.Video
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&videos).Error; err != nil {
		slog.Error("error listing videos", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving videos")
	}

	results := make([]api.Video, 0, len(videos))
	for _, video := range videos {
		results = append(results, videoToApi(video))
	}
	return results, nil
}

// CreateVideo adds a catalog entry: a multipart form with a title, the video
// file itself and an optional logo url. The file is streamed to the videos
// bucket and the staged copy removed afterwards.
func (s *BackendService) CreateVideo(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	title := r.FormValue("title")
	if title == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title is required")
	}

	localPath, err := s.staging.StageMultipart(r, "video")
	if err != nil {
		if errors.Is(err, storage.ErrNoFile) {
			return nil, CodedErrorf(http.StatusBadRequest, "a video file is required")
		}
		if errors.Is(err, storage.ErrPayloadTooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "video file is too large")
		}
		slog.Error("error staging video", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read video file")
	}

	ctx := r.Context()
	defer s.staging.Remove(localPath)

	key := fmt.Sprintf("videos/%d-%s", time.Now().Unix(), filepath.Base(localPath))
	videoUrl, err := s.store.UploadFile(ctx, localPath, s.videosBucket, key)
	if err != nil {
		slog.Error("error uploading video", "key", key, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error uploading video")
	}

	video := database.Video{
		Id:           uuid.New(),
		Title:        title,
		LogoUrl:      r.FormValue("logo_url"),
		Url:          videoUrl,
		ObjectKey:    key,
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		slog.Error("error creating video", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating video")
	}

	return api.CreateVideoResponse{Message: "Video created", Video: videoToApi(video)}, nil
}

func (s *BackendService) DeleteVideo(r *http.Request) (any, error) {
	videoId, err := URLParamUUID(r, "video_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var video database.Video
	if err := s.db.WithContext(ctx).First(&video, "id = ?", videoId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "video not found")
		}
		slog.Error("error loading video", "video_id", videoId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting video")
	}

	// Best effort: a stale object is preferable to a dangling row.
	if video.ObjectKey != "" {
		if err := s.store.DeleteObject(ctx, s.videosBucket, video.ObjectKey); err != nil {
			slog.Warn("error deleting video object", "key", video.ObjectKey, "error", err)
		}
	}

	result := s.db.WithContext(ctx).Delete(&database.Video{}, "id = ?", videoId)
	if result.Error != nil {
		slog.Error("error deleting video", "video_id", videoId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting video")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "video not found")
	}

	return api.MessageResponse{Message: "Video deleted"}, nil
}

// ProcessVideo runs the logo overlay pipeline for an uploaded logo and a
// source video, given either as a url or as an uploaded file, emailing the
// requester a time limited download link. A failed notification still
// reports success since the link stays valid.
func (s *BackendService) ProcessVideo(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	logoPath, err := s.staging.StageMultipart(r, "logo")
	if err != nil {
		if errors.Is(err, storage.ErrNoFile) {
			return nil, CodedErrorf(http.StatusBadRequest, "a logo file is required")
		}
		if errors.Is(err, storage.ErrPayloadTooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "logo file is too large")
		}
		slog.Error("error staging logo", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read logo file")
	}

	videoPath, err := s.staging.StageMultipart(r, "video")
	if err != nil && !errors.Is(err, storage.ErrNoFile) {
		s.staging.Remove(logoPath)
		if errors.Is(err, storage.ErrPayloadTooLarge) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "video file is too large")
		}
		slog.Error("error staging video", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read video file")
	}

	req := pipeline.Request{
		VideoURL:  r.FormValue("video_url"),
		VideoPath: videoPath,
		LogoPath:  logoPath,
		Email:     r.FormValue("email"),
	}

	result, err := s.pipeline.Run(r.Context(), req)
	switch {
	case err == nil:
		return api.ProcessVideoResponse{Message: "Video processed, a download link has been emailed to " + req.Email}, nil
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return nil, CodedError(http.StatusBadRequest, err)
	case errors.Is(err, pipeline.ErrNotificationFailed):
		// Degraded success: the composite is published, only the email
		// failed. Hand the link back directly.
		return api.ProcessVideoResponse{Message: "Video processed but the notification email failed, download link: " + result.DownloadURL}, nil
	default:
		slog.Error("video processing failed", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "video processing failed")
	}
}
