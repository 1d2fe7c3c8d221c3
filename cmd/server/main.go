package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"attachment-service/internal/delivery/http/handlers"
	"attachment-service/internal/delivery/http/routers"
	"attachment-service/internal/domain/repositories"
	"attachment-service/internal/infrastructure/processor"
	"attachment-service/internal/infrastructure/queue"
	infra_repo "attachment-service/internal/infrastructure/repositories"
	"attachment-service/internal/infrastructure/storage"
	"attachment-service/internal/pkg/config"
	"attachment-service/internal/usecases"
	"attachment-service/migrations"
	consts "attachment-service/pkg/constants"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.LoadConfig()

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.Upload.StorageRoot, 0o755); err != nil {
		sugar.Fatalw("cannot create storage root", "err", err)
	}

	paths, err := storage.NewPathBuilder(cfg.Upload.StorageRoot)
	if err != nil {
		sugar.Fatalw("path builder init failed", "err", err)
	}
	chunks, err := storage.NewChunkStore(fs, cfg.Upload.TempDir, sugar)
	if err != nil {
		sugar.Fatalw("chunk store init failed", "err", err)
	}

	blobStore := buildBlobStore(cfg, fs, paths, sugar)
	registry := buildRegistry(cfg, sugar)

	pool := buildWorkerPool(cfg, fs, paths, sugar)
	if pool != nil {
		defer pool.Shutdown()
	}

	sessions := usecases.NewSessionManager(chunks, sugar)
	assembler := usecases.NewAssembler(fs, chunks, paths, blobStore, registry, sugar)
	uploadService := usecases.NewUploadService(sessions, assembler, pool, sugar)
	attachmentService := usecases.NewAttachmentService(registry, blobStore, sugar)
	cleanupService := usecases.NewCleanupService(registry, blobStore, sessions, fs,
		chunks.TempRoot(), cfg.Lifecycle.GracePeriod, cfg.Lifecycle.TempMaxAge, sugar)

	// housekeeping timer, independent of request traffic
	sweeper := cron.New(cron.WithSeconds())
	if _, err := sweeper.AddFunc(cfg.Lifecycle.SweepSpec, func() {
		cleanupService.Run(context.Background())
	}); err != nil {
		sugar.Fatalw("invalid sweep spec", "spec", cfg.Lifecycle.SweepSpec, "err", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit:         int(cfg.Upload.MaxFileSize),
		StreamRequestBody: true,
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	uploadHandler := handlers.NewUploadHandler(uploadService, sugar)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService, sugar)
	routers.SetupRoutes(app, uploadHandler, attachmentHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": consts.StatusOK})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		sugar.Infow("server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			sugar.Fatalw("server start failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutdown signal received")

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorw("server shutdown failed", "err", err)
	}
	sugar.Info("server stopped")
}

func buildBlobStore(cfg *config.Config, fs afero.Fs, paths *storage.PathBuilder, log *zap.SugaredLogger) repositories.BlobStore {
	switch cfg.Storage.Backend {
	case "s3":
		store, err := storage.NewS3Store(context.Background(), fs, cfg.Storage.S3Bucket, cfg.Storage.S3Region)
		if err != nil {
			log.Fatalw("S3 store init failed", "err", err)
		}
		log.Infow("using S3 blob store", "bucket", cfg.Storage.S3Bucket)
		return store
	default:
		return storage.NewLocalStore(fs, paths)
	}
}

func buildRegistry(cfg *config.Config, log *zap.SugaredLogger) repositories.AttachmentRegistry {
	if cfg.Registry.Backend != "postgres" {
		return infra_repo.NewInMemoryAttachmentRegistry()
	}

	db, err := sql.Open("pgx", cfg.Registry.DSN)
	if err != nil {
		log.Fatalw("database open failed", "err", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalw("database ping failed", "err", err)
	}
	if cfg.Registry.AutoMigrate {
		goose.SetBaseFS(migrations.Embedded)
		if err := goose.Up(db, "."); err != nil {
			log.Fatalw("migrations failed", "err", err)
		}
	}
	log.Info("using postgres attachment registry")
	return infra_repo.NewPostgresAttachmentRegistry(db)
}

// buildWorkerPool wires thumbnail post-processing; only meaningful on the
// local backend where variants sit next to their originals.
func buildWorkerPool(cfg *config.Config, fs afero.Fs, paths *storage.PathBuilder, log *zap.SugaredLogger) *queue.WorkerPool {
	if cfg.Storage.Backend != "local" || cfg.Upload.WorkerCount <= 0 {
		return nil
	}
	imageProcessor := processor.NewImageProcessor(fs, paths, log)
	return queue.NewWorkerPool(cfg.Upload.WorkerCount, func(ctx context.Context, job queue.Job) error {
		if job.Type != queue.JobImageVariant || !processor.SupportedVariantSource(job.StoragePath) {
			return nil
		}
		_, err := imageProcessor.CreateThumbnail(job.StoragePath)
		return err
	}, log)
}
