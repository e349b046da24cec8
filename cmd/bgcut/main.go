package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/bgcut/bgcut/internal/api/handlers/image"
	"github.com/bgcut/bgcut/internal/api/router"
	"github.com/bgcut/bgcut/internal/api/server"
	"github.com/bgcut/bgcut/internal/api/ws"
	"github.com/bgcut/bgcut/internal/config"
	"github.com/bgcut/bgcut/internal/infra/kafka/consumer"
	"github.com/bgcut/bgcut/internal/infra/kafka/producer"
	imagemsg "github.com/bgcut/bgcut/internal/kafka/handlers/image"
	"github.com/bgcut/bgcut/internal/pipeline"
	"github.com/bgcut/bgcut/internal/progress"
	"github.com/bgcut/bgcut/internal/queue"
	"github.com/bgcut/bgcut/internal/remover"
	imagerepo "github.com/bgcut/bgcut/internal/repository/image"
	imagesvc "github.com/bgcut/bgcut/internal/service/image"
	"github.com/bgcut/bgcut/internal/storage/file"
	"github.com/bgcut/bgcut/internal/validate"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config")

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Retry strategy for broker sends/fetches.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Object storage (MinIO) for originals and results.
	storage, err := file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.BucketName, cfg.Storage.UseSSL)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	// Core components: repository, broker producer, validation gate, service.
	repo := imagerepo.NewRepository(db)
	p := producer.New(&cfg.Kafka, strategy)
	gate := validate.NewGate()
	service := imagesvc.NewService(gate, storage, p, repo)

	// Background-removal pipeline and its shared state.
	rem := remover.NewONNXRemover(remover.Config{
		ModelsDir:   cfg.Model.Dir,
		LibraryPath: cfg.Model.LibraryPath,
	})
	defer rem.Close()

	results := queue.New()
	hub := progress.NewHub()
	pipe := pipeline.New(rem, storage, repo, results, hub)

	// Broker message handler for uploaded images.
	uploadedHandler := imagemsg.NewUploadedHandler(pipe)

	// HTTP handlers.
	imgHandler := image.NewHandler(service, results, hub)
	wsHandler := ws.NewHandler(hub)

	// Job consumer: processes images strictly one at a time.
	c := consumer.New(&cfg.Kafka, strategy, uploadedHandler)

	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(imgHandler, wsHandler, cfg.Server.StaticDir)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for the consumer goroutine to finish its current job.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close master and slave databases.
	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}
	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}

	// Close broker producer and consumer clients.
	if err = p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err = c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}
