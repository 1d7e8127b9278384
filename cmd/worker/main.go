package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/config"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/queue"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/storage"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	q, err := queue.NewRedisQueue(&cfg.Redis, &cfg.Worker)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer q.Close()

	overrideRepo := storage.NewOverrideRepo(db)
	configRepo := storage.NewScoringConfigRepo(db)
	proposalRepo := storage.NewProposalRepo(db)

	svc := calibration.NewService(overrideRepo, configRepo, proposalRepo)

	w := worker.New(q, svc, cfg.Worker.Concurrency, cfg.Worker.BatchSize)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Println("Worker starting...")
	if err := w.Start(ctx); err != nil {
		log.Fatalf("Worker error: %v", err)
	}

	log.Println("Worker stopped")
}
