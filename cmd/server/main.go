package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/api/handlers"
	"github.com/postpilothq/postpilot/internal/api/middleware"
	"github.com/postpilothq/postpilot/internal/cache"
	job "github.com/postpilothq/postpilot/internal/jobs"
	"github.com/postpilothq/postpilot/internal/publisher"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/storage"
	"github.com/postpilothq/postpilot/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	redisCache := cache.NewRedisCache(cfg.RedisURI)
	defer redisCache.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	postTargetRepo := repository.NewPostTargetRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	cipher := utils.NewAESCipher(cfg.SecretKey)
	mediaStore := storage.NewR2Storage(*cfg)

	registry := publisher.NewRegistry(
		publisher.NewInstagramPublisher(cfg.Publish.HTTPTimeout),
		publisher.NewTiktokPublisher(cfg.TiktokClientKey, cfg.TiktokClientSecret, cfg.Publish.HTTPTimeout),
		publisher.NewYoutubePublisher(cfg.GoogleClientID, cfg.GoogleClientSecret, mediaStore),
	)

	postService := service.NewPostService(db, postRepo, postTargetRepo, socialAccountRepo, mediaAssetRepo, postMediaRepo, redisCache)
	accountService := service.NewAccountService(socialAccountRepo, redisCache)
	notificationService := service.NewNotificationService(notificationRepo)
	publishService := service.NewPublishService(
		postRepo, postTargetRepo, socialAccountRepo, postMediaRepo, mediaAssetRepo,
		registry, cipher, cfg.Publish,
		service.NewNotificationHook(notificationRepo),
		service.NewCacheInvalidationHook(redisCache),
	)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/publish", post.PublishNow)

	// social accounts api routes
	account := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", account.ListSocialAccounts)
	api.Post("/accounts/remove", account.DisconnectSocialAccount)

	notification := handlers.NewNotificationHandler(notificationService)
	api.Get("/notifications", notification.ListNotifications)
	api.Post("/notifications/read", notification.MarkNotificationRead)
	api.Post("/notifications/remove", notification.RemoveNotification)

	// cron jobs
	sweepJob := job.NewPublishSweepJob(postRepo, publishService, notificationRepo, cfg.Scheduler.SweepBatchSize)
	refreshJob := job.NewTokenRefreshJob(socialAccountRepo, registry, cipher, cfg.Scheduler.RefreshHorizon)

	var analyticsJob *job.AnalyticsSnapshotJob
	if cfg.AnalyticsURL != "" {
		analyticsClient := service.NewAnalyticsClient(cfg.AnalyticsURL, cfg.Scheduler.AnalyticsInterval, postRepo)
		analyticsJob = job.NewAnalyticsSnapshotJob(analyticsClient)
	}

	scheduler := job.NewScheduler(cfg.Scheduler, sweepJob, refreshJob, analyticsJob)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	//queue
	queueW := queue.NewQueue(publishService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
