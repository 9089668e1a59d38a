package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forkful/forkful/backend/internal/app"
	"github.com/forkful/forkful/backend/internal/config"
	"github.com/forkful/forkful/backend/internal/media"
	"github.com/forkful/forkful/backend/internal/recipe/repository"
	"github.com/forkful/forkful/backend/internal/sessions"
	"github.com/forkful/forkful/backend/internal/storage"
	"github.com/forkful/forkful/backend/internal/users"
	"github.com/forkful/forkful/backend/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("RECIPE_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	var (
		a   *app.App
		err error
	)
	if cfg.MongoDB.URI != "" {
		if err = cfg.Validate(); err != nil {
			logger.Fatalf("invalid config: %v", err)
		}
		a, err = app.New(ctx, cfg)
		if err != nil {
			logger.Fatalf("failed to initialise application: %v", err)
		}
	} else {
		logger.Warnf("MONGODB_URI not set; using in-memory repositories, data is lost on exit")
		a = inMemory(ctx, cfg, publicURL(port))
	}

	srv := &http.Server{Addr: ":" + port, Handler: a.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("recipe service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = a.Close(shutdownCtx)
}

// publicURL is the externally reachable base of this service, used for the
// URLs of images held by the in-memory media store.
func publicURL(port string) string {
	if u := os.Getenv("RECIPE_SERVICE_PUBLIC_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:" + port
}

// inMemory runs without a database. Redis and MinIO are still used when
// configured; without MinIO, uploads are kept in memory and served under
// app.MediaPath.
func inMemory(ctx context.Context, cfg *config.Config, baseURL string) *app.App {
	userRepo := users.NewMemoryUserRepository()
	deps := app.Deps{
		Users:    userRepo,
		Recipes:  repository.NewMemoryRepo(users.NewService(userRepo, nil)),
		Sessions: sessions.NewMemoryRepository(),
	}
	if addr := cfg.Redis.Addr(); addr != "" {
		rc := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis unavailable (%s): %v", addr, err)
			_ = rc.Close()
		} else {
			deps.Redis = rc
			deps.Sessions = sessions.NewRedisRepository(rc, "session:")
		}
	}
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("object storage unavailable, keeping uploads in memory: %v", err)
		} else {
			deps.Media = store
		}
	}
	if deps.Media == nil {
		deps.Media = media.NewMemoryStore(baseURL + app.MediaPath)
	}
	return app.NewWithDeps(cfg, deps)
}
