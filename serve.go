package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bienesraices/internal/config"
	"bienesraices/internal/database"
	"bienesraices/internal/notifier"
	"bienesraices/internal/repositories"
	"bienesraices/internal/server"
	"bienesraices/internal/services"
	"bienesraices/internal/storage"
	"bienesraices/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var worker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, worker)
		},
	}
	cmd.Flags().BoolVar(&worker, "worker", false, "also consume the mail queue and deliver the emails")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, worker bool) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to sign sessions")
	}

	// --- Database ---
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	var publisher notifier.Publisher
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queues: []string{cfg.MailQueue}})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	}

	if worker {
		if mqClient == nil {
			return errors.New("--worker requires RABBITMQ_URL")
		}
		if err := mqClient.Consume(cfg.MailQueue, notifier.DeliveryHandler(deliverySender(cfg))); err != nil {
			return err
		}
		log.Printf("Consuming %s", cfg.MailQueue)
	}

	// --- Repositories and services ---
	userRepo := repositories.NewGORMUserRepository(db)
	propertyRepo := repositories.NewGORMPropertyRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	catalogRepo := repositories.NewGORMCatalogRepository(db)

	authService := services.NewAuthService(
		userRepo,
		services.NewTokenService(cfg.JWTSecret),
		newNotifier(cfg, publisher),
		cfg.BcryptCost,
	)
	propertyService := services.NewPropertyService(propertyRepo, messageRepo, catalogRepo, images)

	app := server.NewApp(cfg, server.Services{
		Auth:       authService,
		Properties: propertyService,
		Messages:   services.NewMessageService(propertyService, messageRepo),
		Browse:     services.NewBrowseService(propertyRepo, catalogRepo),
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	// Let queued notifications finish before the broker connection closes.
	authService.Wait()

	log.Println("Server gracefully stopped")
	return nil
}

// newNotifier picks the queue when RabbitMQ is configured, then SMTP, and
// falls back to logging the links.
func newNotifier(cfg *config.Config, publisher notifier.Publisher) services.Notifier {
	if publisher != nil {
		return notifier.NewQueueNotifier(publisher, cfg.MailQueue)
	}
	return deliverySender(cfg)
}

// deliverySender is what actually delivers an email: SMTP when configured, the log otherwise.
func deliverySender(cfg *config.Config) notifier.Sender {
	if cfg.SMTPHost != "" {
		return notifier.NewMailer(notifier.MailerConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
			BaseURL:  cfg.BaseURL,
		})
	}
	log.Println("SMTP_HOST is not set; account links will only be logged")
	return notifier.NewLogNotifier(cfg.BaseURL)
}
