package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/queue"
	"classattend/internal/store"
	"classattend/internal/worker"
)

// Standalone consumer for reset jobs. Only needed with QUEUE_BACKEND=redis;
// the API binary runs the same loop in-process otherwise.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	mongoStore, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer func() {
		_ = mongoStore.Close(context.Background())
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	jobs := queue.NewRedisQueue(redisClient.Client, "classattend:resets")

	repo := attendance.NewRepository(mongoStore.DB)
	svc := attendance.NewService(repo, nil)

	log.Println("worker started, waiting for reset jobs...")
	if err := worker.Run(ctx, jobs, svc); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
	log.Println("worker stopped")
}
