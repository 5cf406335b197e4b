package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"instore-backend/internal/database"
	"instore-backend/internal/messaging"
	"instore-backend/internal/storage"
	"instore-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxMultipartMemory  = 32 << 20
	maxNewsletterImages = 10
)

// uploadStagedImage pushes a staged file into the images bucket under the
// given prefix and returns its public URL. The staged file is removed in
// every case.
func (s *BackendService) uploadStagedImage(ctx context.Context, localPath, prefix string) (string, error) {
	defer s.staging.Remove(localPath)

	key := path.Join(prefix, filepath.Base(localPath))
	url, err := s.store.UploadFile(ctx, localPath, s.imagesBucket, key)
	if err != nil {
		slog.Error("error uploading image", "key", key, "error", err)
		return "", CodedErrorf(http.StatusInternalServerError, "error uploading image")
	}
	return url, nil
}

// stageOptionalImage stages the named multipart field if present. A missing
// field is not an error, it returns an empty path.
func (s *BackendService) stageOptionalImage(r *http.Request, field string) (string, error) {
	localPath, err := s.staging.StageMultipart(r, field)
	if err != nil {
		if errors.Is(err, storage.ErrNoFile) {
			return "", nil
		}
		if errors.Is(err, storage.ErrPayloadTooLarge) {
			return "", CodedErrorf(http.StatusRequestEntityTooLarge, "uploaded file is too large")
		}
		slog.Error("error staging uploaded file", "field", field, "error", err)
		return "", CodedErrorf(http.StatusBadRequest, "unable to read uploaded file")
	}
	return localPath, nil
}

func (s *BackendService) ListAds(r *http.Request) (any, error) {
	var ads []database.Ad
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&ads).Error; err != nil {
		slog.Error("error listing ads", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving ads")
	}

	results := make([]api.Ad, 0, len(ads))
	for _, ad := range ads {
		results = append(results, api.Ad{
			Id:          ad.Id,
			Title:       ad.Title,
			Description: ad.Description,
			ImageUrl:    ad.ImageUrl,
			Link:        ad.Link,
			Position:    ad.Position,
		})
	}
	return results, nil
}

func (s *BackendService) ListAdsByPosition(r *http.Request) (any, error) {
	position := chi.URLParam(r, "position")

	var ads []database.Ad
	if err := s.db.WithContext(r.Context()).Where("position = ?", position).Order("creation_time desc").Find(&ads).Error; err != nil {
		slog.Error("error listing ads by position", "position", position, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving ads")
	}
	if len(ads) == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "no ads found for position %s", position)
	}

	results := make([]api.Ad, 0, len(ads))
	for _, ad := range ads {
		results = append(results, api.Ad{
			Id:          ad.Id,
			Title:       ad.Title,
			Description: ad.Description,
			ImageUrl:    ad.ImageUrl,
			Link:        ad.Link,
			Position:    ad.Position,
		})
	}
	return results, nil
}

// CreateAd accepts a multipart form: title, description, link, position and
// an optional image file.
func (s *BackendService) CreateAd(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	title := r.FormValue("title")
	position := r.FormValue("position")
	if title == "" || position == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title and position are required")
	}

	ctx := r.Context()

	var imageUrl string
	if localPath, err := s.stageOptionalImage(r, "image"); err != nil {
		return nil, err
	} else if localPath != "" {
		if imageUrl, err = s.uploadStagedImage(ctx, localPath, "ads"); err != nil {
			return nil, err
		}
	}

	ad := database.Ad{
		Id:           uuid.New(),
		Title:        title,
		Description:  r.FormValue("description"),
		ImageUrl:     imageUrl,
		Link:         r.FormValue("link"),
		Position:     position,
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&ad).Error; err != nil {
		slog.Error("error creating ad", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating ad")
	}

	return api.Ad{
		Id:          ad.Id,
		Title:       ad.Title,
		Description: ad.Description,
		ImageUrl:    ad.ImageUrl,
		Link:        ad.Link,
		Position:    ad.Position,
	}, nil
}

func (s *BackendService) DeleteAd(r *http.Request) (any, error) {
	adId, err := URLParamUUID(r, "ad_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.Ad{}, "id = ?", adId)
	if result.Error != nil {
		slog.Error("error deleting ad", "ad_id", adId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting ad")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "ad not found")
	}

	return api.MessageResponse{Message: "Ad deleted"}, nil
}

func (s *BackendService) ListLatestPosts(r *http.Request) (any, error) {
	var posts []database.LatestPost
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&posts).Error; err != nil {
		slog.Error("error listing latest posts", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving posts")
	}

	results := make([]api.LatestPost, 0, len(posts))
	for _, post := range posts {
		results = append(results, api.LatestPost{
			Id:       post.Id,
			Subject:  post.Subject,
			Content:  post.Content,
			Link:     post.Link,
			ImageUrl: post.ImageUrl,
		})
	}
	return results, nil
}

func (s *BackendService) GetLatestPost(r *http.Request) (any, error) {
	postId, err := URLParamUUID(r, "post_id")
	if err != nil {
		return nil, err
	}

	var post database.LatestPost
	if err := s.db.WithContext(r.Context()).First(&post, "id = ?", postId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "post not found")
		}
		slog.Error("error loading latest post", "post_id", postId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving post")
	}

	return api.LatestPost{
		Id:       post.Id,
		Subject:  post.Subject,
		Content:  post.Content,
		Link:     post.Link,
		ImageUrl: post.ImageUrl,
	}, nil
}

func (s *BackendService) CreateLatestPost(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	subject := r.FormValue("subject")
	content := r.FormValue("content")
	if subject == "" || content == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "subject and content are required")
	}

	ctx := r.Context()

	var imageUrl string
	if localPath, err := s.stageOptionalImage(r, "image"); err != nil {
		return nil, err
	} else if localPath != "" {
		if imageUrl, err = s.uploadStagedImage(ctx, localPath, "latest"); err != nil {
			return nil, err
		}
	}

	post := database.LatestPost{
		Id:           uuid.New(),
		Subject:      subject,
		Content:      content,
		Link:         r.FormValue("link"),
		ImageUrl:     imageUrl,
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		slog.Error("error creating latest post", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating post")
	}

	return api.LatestPost{
		Id:       post.Id,
		Subject:  post.Subject,
		Content:  post.Content,
		Link:     post.Link,
		ImageUrl: post.ImageUrl,
	}, nil
}

func (s *BackendService) DeleteLatestPost(r *http.Request) (any, error) {
	postId, err := URLParamUUID(r, "post_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.LatestPost{}, "id = ?", postId)
	if result.Error != nil {
		slog.Error("error deleting latest post", "post_id", postId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting post")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "post not found")
	}

	return api.MessageResponse{Message: "Post deleted"}, nil
}

func newsletterToApi(record database.Newsletter) (api.Newsletter, error) {
	result := api.Newsletter{Id: record.Id}
	if len(record.Contents) > 0 {
		if err := json.Unmarshal(record.Contents, &result.Contents); err != nil {
			return result, err
		}
	}
	if len(record.Images) > 0 {
		if err := json.Unmarshal(record.Images, &result.Images); err != nil {
			return result, err
		}
	}
	if len(record.Recipients) > 0 {
		if err := json.Unmarshal(record.Recipients, &result.Recipients); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *BackendService) ListNewsletters(r *http.Request) (any, error) {
	var newsletters []database.Newsletter
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&newsletters).Error; err != nil {
		slog.Error("error listing newsletters", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving newsletters")
	}

	results := make([]api.Newsletter, 0, len(newsletters))
	for _, record := range newsletters {
		converted, err := newsletterToApi(record)
		if err != nil {
			slog.Error("error decoding newsletter", "newsletter_id", record.Id, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving newsletters")
		}
		results = append(results, converted)
	}
	return results, nil
}

// CreateNewsletter accepts a multipart form: a "contents" field holding the
// per-language copy as json, a "recipients" field holding a json array of
// emails, and any number of "images" files.
func (s *BackendService) CreateNewsletter(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	var contents []api.NewsletterContent
	if err := json.Unmarshal([]byte(r.FormValue("contents")), &contents); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "contents must be a json array of {title, description, language}")
	}
	if len(contents) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "at least one content entry is required")
	}
	for _, content := range contents {
		if content.Title == "" || content.Description == "" {
			return nil, CodedErrorf(http.StatusBadRequest, "every content entry needs a title and description")
		}
	}

	var recipients []string
	if raw := r.FormValue("recipients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &recipients); err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "recipients must be a json array of emails")
		}
	}
	for _, recipient := range recipients {
		if !emailPattern.MatchString(recipient) {
			return nil, CodedErrorf(http.StatusBadRequest, "recipient %q is not a valid email address", recipient)
		}
	}

	ctx := r.Context()

	var imageUrls []string
	if r.MultipartForm != nil {
		if len(r.MultipartForm.File["images"]) > maxNewsletterImages {
			return nil, CodedErrorf(http.StatusBadRequest, "a newsletter can carry at most %d images", maxNewsletterImages)
		}
		for _, header := range r.MultipartForm.File["images"] {
			localPath, err := s.staging.StageFileHeader(header)
			if err != nil {
				if errors.Is(err, storage.ErrPayloadTooLarge) {
					return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "uploaded image is too large")
				}
				slog.Error("error staging newsletter image", "error", err)
				return nil, CodedErrorf(http.StatusBadRequest, "unable to read uploaded image")
			}
			url, err := s.uploadStagedImage(ctx, localPath, "newsletters")
			if err != nil {
				return nil, err
			}
			imageUrls = append(imageUrls, url)
		}
	}

	contentsJson, err := json.Marshal(contents)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error encoding newsletter")
	}
	imagesJson, err := json.Marshal(imageUrls)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error encoding newsletter")
	}
	recipientsJson, err := json.Marshal(recipients)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error encoding newsletter")
	}

	record := database.Newsletter{
		Id:           uuid.New(),
		Contents:     datatypes.JSON(contentsJson),
		Images:       datatypes.JSON(imagesJson),
		Recipients:   datatypes.JSON(recipientsJson),
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating newsletter", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating newsletter")
	}

	converted, err := newsletterToApi(record)
	if err != nil {
		slog.Error("error decoding newsletter", "newsletter_id", record.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating newsletter")
	}
	return converted, nil
}

func (s *BackendService) DeleteNewsletter(r *http.Request) (any, error) {
	newsletterId, err := URLParamUUID(r, "newsletter_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.Newsletter{}, "id = ?", newsletterId)
	if result.Error != nil {
		slog.Error("error deleting newsletter", "newsletter_id", newsletterId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting newsletter")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "newsletter not found")
	}

	return api.MessageResponse{Message: "Newsletter deleted"}, nil
}

// SendNewsletter queues the newsletter for delivery. The actual sending,
// including translation, happens in the worker.
func (s *BackendService) SendNewsletter(r *http.Request) (any, error) {
	newsletterId, err := URLParamUUID(r, "newsletter_id")
	if err != nil {
		return nil, err
	}

	// The body is optional, an empty body sends the newsletter as authored.
	var req api.SendNewsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}

	ctx := r.Context()

	var record database.Newsletter
	if err := s.db.WithContext(ctx).First(&record, "id = ?", newsletterId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "newsletter not found")
		}
		slog.Error("error getting newsletter", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving newsletter")
	}

	var recipients []string
	if err := json.Unmarshal(record.Recipients, &recipients); err != nil || len(recipients) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "newsletter has no recipients")
	}

	payload := messaging.NewsletterDispatchPayload{
		NewsletterId: newsletterId,
		Language:     req.Language,
	}
	if err := s.publisher.PublishNewsletterDispatch(ctx, payload); err != nil {
		slog.Error("error publishing newsletter dispatch", "newsletter_id", newsletterId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue newsletter")
	}

	slog.Info("newsletter dispatch queued", "newsletter_id", newsletterId, "language", req.Language)
	return api.MessageResponse{Message: "Newsletter dispatch queued"}, nil
}

func (s *BackendService) ListPremieres(r *http.Request) (any, error) {
	var premieres []database.Premiere
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&premieres).Error; err != nil {
		slog.Error("error listing premieres", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving premieres")
	}

	results := make([]api.Premiere, 0, len(premieres))
	for _, premiere := range premieres {
		results = append(results, api.Premiere{
			Id:          premiere.Id,
			Title:       premiere.Title,
			Description: premiere.Description,
			Url:         premiere.Url,
		})
	}
	return results, nil
}

func (s *BackendService) GetPremiere(r *http.Request) (any, error) {
	premiereId, err := URLParamUUID(r, "premiere_id")
	if err != nil {
		return nil, err
	}

	var premiere database.Premiere
	if err := s.db.WithContext(r.Context()).First(&premiere, "id = ?", premiereId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "premiere not found")
		}
		slog.Error("error loading premiere", "premiere_id", premiereId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving premiere")
	}

	return api.Premiere{
		Id:          premiere.Id,
		Title:       premiere.Title,
		Description: premiere.Description,
		Url:         premiere.Url,
	}, nil
}

func (s *BackendService) CreatePremiere(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreatePremiereRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Title == "" || req.Url == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title and url are required")
	}

	premiere := database.Premiere{
		Id:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Url:          req.Url,
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(r.Context()).Create(&premiere).Error; err != nil {
		slog.Error("error creating premiere", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating premiere")
	}

	return api.Premiere{
		Id:          premiere.Id,
		Title:       premiere.Title,
		Description: premiere.Description,
		Url:         premiere.Url,
	}, nil
}

func (s *BackendService) DeletePremiere(r *http.Request) (any, error) {
	premiereId, err := URLParamUUID(r, "premiere_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.Premiere{}, "id = ?", premiereId)
	if result.Error != nil {
		slog.Error("error deleting premiere", "premiere_id", premiereId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting premiere")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "premiere not found")
	}

	return api.MessageResponse{Message: "Premiere deleted"}, nil
}

func (s *BackendService) ListStoreWindows(r *http.Request) (any, error) {
	var windows []database.StoreWindow
	if err := s.db.WithContext(r.Context()).Order("creation_time desc").Find(&windows).Error; err != nil {
		slog.Error("error listing store windows", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving store windows")
	}

	results := make([]api.StoreWindow, 0, len(windows))
	for _, window := range windows {
		results = append(results, api.StoreWindow{
			Id:          window.Id,
			Title:       window.Title,
			Description: window.Description,
			Content:     window.Content,
			Url:         window.Url,
			MediaUrl:    window.MediaUrl,
		})
	}
	return results, nil
}

// CreateStoreWindow accepts a multipart form: title, description, content,
// url and an optional media file.
func (s *BackendService) CreateStoreWindow(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	windowUrl := r.FormValue("url")
	if title == "" || description == "" || windowUrl == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title, description and url are required")
	}

	ctx := r.Context()

	var mediaUrl string
	if localPath, err := s.stageOptionalImage(r, "media"); err != nil {
		return nil, err
	} else if localPath != "" {
		if mediaUrl, err = s.uploadStagedImage(ctx, localPath, "windows"); err != nil {
			return nil, err
		}
	}

	window := database.StoreWindow{
		Id:           uuid.New(),
		Title:        title,
		Description:  description,
		Content:      r.FormValue("content"),
		Url:          windowUrl,
		MediaUrl:     mediaUrl,
		CreationTime: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&window).Error; err != nil {
		slog.Error("error creating store window", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating store window")
	}

	return api.StoreWindow{
		Id:          window.Id,
		Title:       window.Title,
		Description: window.Description,
		Content:     window.Content,
		Url:         window.Url,
		MediaUrl:    window.MediaUrl,
	}, nil
}

func (s *BackendService) DeleteStoreWindow(r *http.Request) (any, error) {
	windowId, err := URLParamUUID(r, "window_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.StoreWindow{}, "id = ?", windowId)
	if result.Error != nil {
		slog.Error("error deleting store window", "window_id", windowId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting store window")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "store window not found")
	}

	return api.MessageResponse{Message: "Store window deleted"}, nil
}
