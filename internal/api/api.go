package api

import (
	"net/http"

	"instore-backend/internal/auth"
	"instore-backend/internal/mail"
	"instore-backend/internal/messaging"
	"instore-backend/internal/pipeline"
	"instore-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// BackendService serves the storefront and admin API. Image uploads land in
// the images bucket, processed videos flow through the pipeline into the
// videos bucket.
type BackendService struct {
	db        *gorm.DB
	store     storage.ObjectStore
	staging   *storage.StagingArea
	publisher messaging.Publisher
	pipeline  *pipeline.Pipeline
	tokens    *auth.TokenManager
	mailer    mail.Mailer

	imagesBucket string
	videosBucket string
}

type BackendServiceParams struct {
	DB           *gorm.DB
	Store        storage.ObjectStore
	Staging      *storage.StagingArea
	Publisher    messaging.Publisher
	Pipeline     *pipeline.Pipeline
	Tokens       *auth.TokenManager
	Mailer       mail.Mailer
	ImagesBucket string
	VideosBucket string
}

func NewBackendService(params BackendServiceParams) *BackendService {
	return &BackendService{
		db:           params.DB,
		store:        params.Store,
		staging:      params.Staging,
		publisher:    params.Publisher,
		pipeline:     params.Pipeline,
		tokens:       params.Tokens,
		mailer:       params.Mailer,
		imagesBucket: params.ImagesBucket,
		videosBucket: params.VideosBucket,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", RestHandler(s.RegisterStore))
		r.Post("/admin-signup", RestHandler(s.SignupAdmin))
		r.Post("/login", RestHandler(s.Login))
	})

	r.Route("/stores", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListStores))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Get("/unverified", RestHandler(s.ListUnverifiedStores))
			r.Post("/{store_id}/verify", RestHandler(s.VerifyStore))
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListCategories))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateCategory))
			r.Delete("/{category_id}", RestHandler(s.DeleteCategory))
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListProducts))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateProduct))
			r.Post("/batch", RestHandler(s.CreateProductsBatch))
			r.Put("/{product_id}", RestHandler(s.UpdateProduct))
			r.Delete("/{product_id}", RestHandler(s.DeleteProduct))
		})
	})

	r.Route("/ads", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListAds))
		r.Get("/position/{position}", RestHandler(s.ListAdsByPosition))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateAd))
			r.Delete("/{ad_id}", RestHandler(s.DeleteAd))
		})
	})

	r.Route("/latest", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListLatestPosts))
		r.Get("/{post_id}", RestHandler(s.GetLatestPost))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateLatestPost))
			r.Delete("/{post_id}", RestHandler(s.DeleteLatestPost))
		})
	})

	r.Route("/newsletters", func(r chi.Router) {
		r.Use(AuthMiddleware(s.tokens), AdminOnly)
		r.Get("/", RestHandler(s.ListNewsletters))
		r.Post("/", RestHandler(s.CreateNewsletter))
		r.Delete("/{newsletter_id}", RestHandler(s.DeleteNewsletter))
		r.Post("/{newsletter_id}/send", RestHandler(s.SendNewsletter))
	})

	r.Route("/premieres", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListPremieres))
		r.Get("/{premiere_id}", RestHandler(s.GetPremiere))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreatePremiere))
			r.Delete("/{premiere_id}", RestHandler(s.DeletePremiere))
		})
	})

	r.Route("/windows", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListStoreWindows))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateStoreWindow))
			r.Delete("/{window_id}", RestHandler(s.DeleteStoreWindow))
		})
	})

	r.Route("/videos", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListVideos))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.tokens), AdminOnly)
			r.Post("/", RestHandler(s.CreateVideo))
			r.Delete("/{video_id}", RestHandler(s.DeleteVideo))
		})
	})

	r.Post("/process-video", RestHandler(s.ProcessVideo))
}
