package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profiling-bundler/api/rest/handlers"
	"profiling-bundler/api/rest/routes"
	"profiling-bundler/config"
	"profiling-bundler/core/executor"
	"profiling-bundler/core/logging"
	"profiling-bundler/core/repository"
	"profiling-bundler/core/scheduler"
	"profiling-bundler/providers/aws"
	"profiling-bundler/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.AppName, cfg.AppLogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Database connected successfully")

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	// Bundle publishing, S3 only when a bucket is configured
	var uploader storage.DirUploader
	if cfg.BundleBucket != "" {
		s3Client, err := aws.NewClient(ctx, cfg.AWSRegion, cfg.BundleBucket, cfg.BundlePrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		uploader = s3Client
		log.Info().Str("bucket", cfg.BundleBucket).Msg("Publishing bundles to S3")
	}
	bundleManager := storage.NewBundleManager(artifactRepo, uploader)

	// Initialize executor and scheduler
	bundleExecutor := executor.NewBundleExecutor(jobRepo, bundleManager, cfg.BenchmarkApp)
	sched := scheduler.NewScheduler(jobRepo, bundleExecutor, cfg.Workers)
	go sched.Start(ctx)
	defer sched.Stop()

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r,
		handlers.NewJobHandler(jobRepo, eventRepo, artifactRepo, bundleManager, sched, cfg.BundlesRoot),
		handlers.NewDashboardHandler(jobRepo, jobRepo, sched),
	)

	// Start server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.ServerPort).Int("workers", cfg.Workers).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let running jobs finish before the database closes; cancel them on timeout
	sched.Stop()
	select {
	case <-sched.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("Cancelling running jobs")
		cancel()
		<-sched.Done()
	}
	log.Info().Msg("Server exited")
}
