package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pennywise-app/pennywise/internal/auth"
	"github.com/pennywise-app/pennywise/internal/cache"
	redisc "github.com/pennywise-app/pennywise/internal/cache/redis"
	"github.com/pennywise-app/pennywise/internal/files"
	"github.com/pennywise-app/pennywise/internal/httpapi"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/profile"
	"github.com/pennywise-app/pennywise/internal/projection"
	"github.com/pennywise-app/pennywise/internal/search"
	blevesearch "github.com/pennywise-app/pennywise/internal/search/bleve"
	"github.com/pennywise-app/pennywise/internal/session"
	"github.com/pennywise-app/pennywise/internal/storage/sqlite"
	"github.com/pennywise-app/pennywise/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()
	ctx := context.Background()

	dbPath := getEnv("DB_PATH", "./data/ledger.db")
	indexPath := getEnv("INDEX_PATH", "./data/records.bleve")
	redisAddr := os.Getenv("REDIS_ADDR") // empty means in-process cache
	jwtSecret := os.Getenv("JWT_SECRET")
	filesBucket := os.Getenv("FILES_BUCKET")
	addr := ":" + getEnv("PORT", "8080")

	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	var c cache.Cache
	if redisAddr != "" {
		redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
		c, err = redisc.New(ctx, redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", redisAddr, "error", err)
			os.Exit(1)
		}
		slog.Info("cache initialized", "addr", redisAddr)
	} else {
		c = cache.NewMemory()
		slog.Warn("REDIS_ADDR not set, using in-process cache")
	}
	defer c.Close()

	var idx search.Index
	idx, err = blevesearch.Open(indexPath)
	if err != nil {
		slog.Error("failed to open search index", "path", indexPath, "error", err)
		os.Exit(1)
	}
	defer idx.Close()
	slog.Info("search index initialized", "path", indexPath)

	var fileStore files.Store
	if filesBucket != "" {
		fileStore, err = files.NewGCSStore(ctx, filesBucket)
		if err != nil {
			slog.Error("failed to initialize file storage", "bucket", filesBucket, "error", err)
			os.Exit(1)
		}
		defer fileStore.Close()
	}

	resolver := session.NewResolver(c)
	ledgerSvc := ledger.NewService(store,
		projection.NewCacheProjector(c),
		projection.NewSearchProjector(idx),
		resolver,
	)
	profileSvc := profile.NewService(store, c)
	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)

	api := http.NewServeMux()
	httpapi.New(ledgerSvc, profileSvc, resolver, fileStore).Register(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", httpapi.RequireAuth(jwtManager, api))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := httpapi.Logging(mux)
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	go func() {
		slog.Info("server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
