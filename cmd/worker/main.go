package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"instore-backend/cmd"
	"instore-backend/internal/database"
	"instore-backend/internal/mail"
	"instore-backend/internal/messaging"
	"instore-backend/internal/newsletter"
	"instore-backend/internal/translate"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL     string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL     string `env:"RABBITMQ_URL,notEmpty,required"`
	TranslateAPIURL string `env:"TRANSLATE_API_URL"`

	SMTP mail.SMTPConfig
}

func main() {
	log.Println("Starting newsletter worker...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	dispatcher := newsletter.NewDispatcher(db, mail.NewSMTPMailer(cfg.SMTP), translate.NewClient(cfg.TranslateAPIURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher.Run(ctx, receiver)

	log.Println("Worker stopped.")
}
