package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/app"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/config"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	application, err := app.NewApp(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatalw("startup failed", "error", err)
	}
	defer application.Close()

	go application.Server.Start()
	zlog.Info("RAG platform is running; DB connected and bootstrapped")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Warnw("shutdown error", "error", err)
	}
}
