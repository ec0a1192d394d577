// Command qoo10-ai-agent-sub000 boots the marketplace analysis pipeline:
// Performance Store, Job Store, worker pool, and HTTP API, wired in the
// same init-sequence shape as order_service/main.go (config → logger →
// store → redis → job store → worker pool → HTTP server → graceful
// shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/analyzer"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/config"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/database"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/feedback"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/fetcher"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/httpapi"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/orchestrator"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/parser"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/validator"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/worker"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(logging.Options{
		Level: cfg.LogLevel, Service: "qoo10-analyzer", Environment: cfg.Environment, Format: cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	perfStore, err := database.OpenPerformanceStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open performance store")
	}
	defer perfStore.Close()
	if err := perfStore.SeedProxies(context.Background(), cfg.ProxyList); err != nil {
		log.WithError(err).Info("failed to seed proxy list")
	}

	var redisClient = initRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
		perfStore = store.NewCachedStore(perfStore, redisClient, 10*time.Minute)
	}

	jobs := database.OpenJobStore(cfg, redisClient)
	mon := monitor.New(log)
	defer mon.Stop()

	orc := buildOrchestrator(perfStore, jobs, mon, log, cfg)
	pool := worker.New(cfg.WorkerPoolSize, orc, log)

	ctx, cancelPool := context.WithCancel(context.Background())
	pool.Start(ctx)

	fb := feedback.New(perfStore, jobs)
	controller := httpapi.New(jobs, pool, mon, fb, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(controller, cfg.CORSAllowedOrigins, log)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	startServer(server, cancelPool, pool, log, cfg)
}

func initRedis(cfg *config.Config, log *logging.Logger) *redis.Client {
	client, err := database.OpenRedisClient(cfg)
	if err != nil {
		log.WithError(err).Info("redis unavailable, degrading to uncached store and in-memory job store")
		return nil
	}
	log.Info("redis initialized successfully")
	return client
}

func buildOrchestrator(perfStore store.PerformanceStore, jobs jobstore.JobStore, mon *monitor.Monitor, log *logging.Logger, cfg *config.Config) *orchestrator.Orchestrator {
	f := fetcher.New(perfStore, nil, fetcher.Config{
		PerRequestTimeout: cfg.FetchTimeout,
		TotalTimeout:      cfg.FetchTotalTimeout,
		MaxRetries:        cfg.FetchMaxRetries,
		RetryBaseDelay:    cfg.FetchRetryBaseDelay,
	})
	p := parser.New(perfStore)
	a := analyzer.New(analyzer.NewHTTPImageSizer())
	v := validator.New(perfStore)

	return orchestrator.New(f, p, a, v, perfStore, jobs, mon, log, orchestrator.Config{
		ChecklistBudget: cfg.ChecklistTimeout,
	})
}

func startServer(server *http.Server, cancelPool context.CancelFunc, pool *worker.Pool, log *logging.Logger, cfg *config.Config) {
	go func() {
		log.Info("starting HTTP server", zap.String("port", cfg.HTTPPort), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	cancelPool()
	pool.Stop()

	log.Info("shutdown complete")
}
