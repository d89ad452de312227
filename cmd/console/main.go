package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-vision-console/internal/config"
	"go-vision-console/internal/container"
	"go-vision-console/internal/logger"

	"github.com/sirupsen/logrus"
)

const reapInterval = time.Minute

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	c, err := container.NewConsoleContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	c.Sessions().StartReaper(ctx, reapInterval)

	// Submissions run inside the request, so the write timeout must cover them
	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.SubmitTimeout + cfg.RequestTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"address":     cfg.ServerAddress(),
			"backend_url": cfg.BackendURL,
			"session_ttl": cfg.SessionIdleTTL,
		}).Info("Starting console server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	stop()
	c.Sessions().Close()

	logger.Info("Server exited")
}
