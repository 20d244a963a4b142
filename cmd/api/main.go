package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"janseva/api/internal/app"
	"janseva/api/internal/config"
	"janseva/api/internal/export"
	"janseva/api/internal/search"
	"janseva/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		log.Fatalf("store initialization failed: %v", err)
	}
	defer closeSlot()
	dataStore := store.New(slot)

	var engine search.Engine
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		engine = meiliClient
	}
	searchService := search.NewService(engine)

	var uploader export.Uploader
	if strings.TrimSpace(cfg.ExportBucket) != "" {
		archive, err := export.NewArchive(ctx, export.ArchiveConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.ExportBucket,
		})
		if err != nil {
			log.Printf("WARNING: export archive disabled: %v", err)
		} else {
			uploader = archive
		}
	}
	exportService := export.NewService(cfg.ChromePDF, uploader)

	service := app.New(cfg, dataStore, searchService, exportService)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("JanSeva API listening on %s (store: %s)", cfg.Addr, cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openSlot connects the configured storage backend. The returned func
// releases it.
func openSlot(ctx context.Context, cfg config.Config) (store.Slot, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.BackendRedis:
		slot, err := store.NewRedisSlot(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return slot, func() { _ = slot.Close() }, nil
	case config.BackendPostgres:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewPostgresSlot(db), func() { _ = db.Close() }, nil
	case config.BackendGit:
		slot, err := store.NewGitSlot(cfg.JournalDir)
		if err != nil {
			return nil, noop, err
		}
		return slot, noop, nil
	default:
		log.Printf("Using in-memory store; complaints are lost on restart")
		return store.NewMemorySlot(), noop, nil
	}
}
