package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"instore-backend/cmd"
	"instore-backend/internal/api"
	"instore-backend/internal/auth"
	"instore-backend/internal/database"
	"instore-backend/internal/mail"
	"instore-backend/internal/media"
	"instore-backend/internal/messaging"
	"instore-backend/internal/newsletter"
	"instore-backend/internal/pipeline"
	"instore-backend/internal/storage"
	"instore-backend/internal/translate"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID,notEmpty,required"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,notEmpty,required"`
	S3Region          string `env:"AWS_REGION,notEmpty,required"`
	ImagesBucketName  string `env:"IMAGES_BUCKET_NAME" envDefault:"images"`
	VideosBucketName  string `env:"VIDEOS_BUCKET_NAME" envDefault:"videos"`

	JWTSecret string `env:"JWT_SECRET,notEmpty,required"`

	StagingDir      string        `env:"STAGING_DIR" envDefault:"/tmp/instore-staging"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`
	FFmpegBinary    string        `env:"FFMPEG_BINARY" envDefault:"ffmpeg"`
	TransformWindow time.Duration `env:"TRANSFORM_TIMEOUT" envDefault:"15m"`

	TranslateAPIURL string `env:"TRANSLATE_API_URL"`

	SMTP mail.SMTPConfig

	APIPort string `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewS3ObjectStore(storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	ctx := context.Background()
	for _, bucket := range []string{cfg.ImagesBucketName, cfg.VideosBucketName} {
		if err := store.CreateBucket(ctx, bucket); err != nil {
			log.Fatalf("Failed to create bucket %s: %v", bucket, err)
		}
	}

	staging, err := storage.NewStagingArea(cfg.StagingDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Failed to create staging area: %v", err)
	}

	var publisher messaging.Publisher
	if cfg.RabbitMQURL != "" {
		rabbitPublisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rabbitPublisher
	} else {
		// Without a broker, newsletter sends are processed in this process.
		log.Println("RABBITMQ_URL not set, dispatching newsletters in process")
		queue := messaging.NewInMemoryQueue()
		publisher = queue

		dispatcher := newsletter.NewDispatcher(db, mail.NewSMTPMailer(cfg.SMTP), translate.NewClient(cfg.TranslateAPIURL))
		go dispatcher.Run(ctx, queue)
	}
	defer publisher.Close()

	mailer := mail.NewSMTPMailer(cfg.SMTP)
	transformer := media.NewFFmpegTransformer(cfg.FFmpegBinary, cfg.TransformWindow)
	videoPipeline := pipeline.New(staging, transformer, store, mailer, cfg.VideosBucketName)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Hour))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	apiHandler := api.NewBackendService(api.BackendServiceParams{
		DB:           db,
		Store:        store,
		Staging:      staging,
		Publisher:    publisher,
		Pipeline:     videoPipeline,
		Tokens:       tokens,
		Mailer:       mailer,
		ImagesBucket: cfg.ImagesBucketName,
		VideosBucket: cfg.VideosBucketName,
	})

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
