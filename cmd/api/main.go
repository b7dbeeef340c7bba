package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	"github.com/habitforge/bulk-user-import/internal/bootstrap"
	"github.com/habitforge/bulk-user-import/internal/infrastructure/accounts"
	"github.com/habitforge/bulk-user-import/internal/infrastructure/repository"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	accountAPIURL := os.Getenv("ACCOUNT_API_URL")
	if accountAPIURL == "" {
		log.Fatal("ACCOUNT_API_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	accountClient := accounts.NewClient(accountAPIURL, os.Getenv("ACCOUNT_API_KEY"), nil)
	sessionStore := repository.NewSessionStore(pool)
	auditRepo := repository.NewImportAuditRepository(db)

	executor := app.NewExecutor(sessionStore, accountClient, auditRepo, app.ExecutorConfig{
		RecordDelay:      time.Duration(parseIntEnv("IMPORT_RECORD_DELAY_MS", 250)) * time.Millisecond,
		PerRecordTimeout: time.Duration(parseIntEnv("IMPORT_RECORD_TIMEOUT_SECONDS", 30)) * time.Second,
		DefaultPassword:  os.Getenv("IMPORT_DEFAULT_PASSWORD"),
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	executor.Start(workerCtx)

	server := bootstrap.NewHTTPServer(db, pool, executor)

	go func() {
		if err := server.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
