// Package app assembles the API from configuration: it owns the external
// clients (MongoDB, Redis, object storage), builds the services on top of them
// and exposes the HTTP router.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/forkful/forkful/backend/handlers"
	"github.com/forkful/forkful/backend/internal/config"
	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/media"
	"github.com/forkful/forkful/backend/internal/recipe"
	recipehandler "github.com/forkful/forkful/backend/internal/recipe/handler"
	"github.com/forkful/forkful/backend/internal/recipe/repository"
	"github.com/forkful/forkful/backend/internal/recipe/service"
	"github.com/forkful/forkful/backend/internal/sessions"
	"github.com/forkful/forkful/backend/internal/storage"
	"github.com/forkful/forkful/backend/internal/tokens"
	"github.com/forkful/forkful/backend/internal/users"
	"github.com/forkful/forkful/backend/pkg/logger"
	"github.com/forkful/forkful/backend/pkg/metrics"
	"github.com/forkful/forkful/backend/pkg/middleware"
)

// MediaPath is where a media store that implements http.Handler is mounted.
const MediaPath = "/media"

// Deps are the storage backends the application runs on. Nil Mongo, Redis
// and Media are allowed: readiness skips them and uploads are disabled
// without Media.
type Deps struct {
	Mongo    *mongo.Client
	Redis    *redis.Client
	Media    media.Store
	Users    users.UserRepository
	Recipes  recipe.Repository
	Sessions sessions.Repository
}

// App is the application handle created at startup and closed at shutdown.
type App struct {
	cfg      *config.Config
	deps     Deps
	started  time.Time
	registry *prometheus.Registry

	Users     *users.Service
	Recipes   *service.Service
	Sessions  *sessions.Service
	Tokens    *tokens.Manager
	Blacklist *sessions.Blacklist

	router *gin.Engine
}

// New connects to MongoDB (required), Redis and MinIO (both optional) and
// assembles the application.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, func(attempt int, err error) {
		logger.Warnf("attempt %d: failed to connect to MongoDB: %v", attempt, err)
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Warnf("failed to ensure indexes: %v", err)
	}

	deps := Deps{
		Mongo:   client,
		Users:   users.NewMongoUserRepository(db.Collection(database.UsersCollection)),
		Recipes: repository.NewMongoRepo(db),
	}

	if addr := cfg.Redis.Addr(); addr != "" {
		rc := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = rc.Close()
		} else {
			logger.Infof("connected to Redis at %s", addr)
			deps.Redis = rc
		}
	}

	if deps.Redis != nil {
		deps.Sessions = sessions.NewRedisRepository(deps.Redis, "session:")
	} else {
		srepo := sessions.NewMongoRepository(db.Collection("sessions"))
		if err := srepo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("failed to ensure session indexes: %v", err)
		}
		deps.Sessions = srepo
	}

	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("object storage unavailable, image uploads disabled: %v", err)
		} else {
			deps.Media = store
		}
	}

	return NewWithDeps(cfg, deps), nil
}

// NewWithDeps assembles services and routes on already-constructed backends.
func NewWithDeps(cfg *config.Config, deps Deps) *App {
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = randomSecret()
		logger.Warnf("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}
	a := &App{cfg: cfg, deps: deps, started: time.Now()}

	limits := media.Constraints{MaxBytes: cfg.Upload.MaxBytes, MaxWidth: cfg.Upload.MaxWidth, MaxHeight: cfg.Upload.MaxHeight}
	var (
		avatars users.ImageUploader
		images  service.MediaStore
	)
	if deps.Media != nil {
		avatars = media.NewService(deps.Media, "avatars", limits)
		images = media.NewService(deps.Media, "recipes", limits)
	}

	a.Users = users.NewService(deps.Users, avatars)
	a.Recipes = service.NewService(deps.Recipes, images, a.Users)
	a.Sessions = sessions.NewService(deps.Sessions, cfg.JWT.RefreshTokenTTL)
	a.Tokens = tokens.NewManager(cfg)
	a.Blacklist = sessions.NewBlacklist(deps.Redis)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(a.registry)

	a.router = a.buildRouter()
	return a
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}

func (a *App) buildRouter() *gin.Engine {
	if !a.cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.ErrorHandler(a.cfg.Server.IsDevelopment()))
	r.Use(cors.New(corsConfig(a.cfg.Server.CORSOrigins)))

	auth := middleware.AuthMiddleware(a.Tokens, a.Blacklist)
	optional := middleware.OptionalAuth(a.Tokens, a.Blacklist)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	// stores without a public endpoint of their own serve uploads here
	if h, ok := a.deps.Media.(http.Handler); ok {
		r.GET(MediaPath+"/*key", gin.WrapH(http.StripPrefix(MediaPath, h)))
	}
	handlers.RegisterSwagger(r)

	// per-user limiting needs the caller identified first
	api := r.Group("", optional)
	if rl := a.cfg.RateLimit; rl.Enabled {
		if rl.UseRedis && a.deps.Redis != nil {
			api.Use(middleware.RedisRateLimitMiddleware(a.deps.Redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			api.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	handlers.NewAuthHandler(a.Users, a.Sessions, a.Tokens, a.Blacklist).Register(api, auth, optional)
	handlers.NewUsersHandler(a.Users, a.Recipes, a.cfg.Upload.MaxBytes).Register(api, auth, optional)
	recipehandler.New(a.Recipes, a.cfg.Upload.MaxBytes).RegisterRoutes(api, auth, optional)
	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ready reports 200 only when every configured backend answers.
func (a *App) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	ok := true
	check := func(name string, err error) {
		deps[name] = err == nil
		if err != nil {
			ok = false
			logger.Warnf("readiness: %s: %v", name, err)
		}
	}
	if a.deps.Mongo != nil {
		check("mongodb", a.deps.Mongo.Ping(ctx, nil))
	}
	if a.deps.Redis != nil {
		check("redis", a.deps.Redis.Ping(ctx).Err())
	}
	if p, isPinger := a.deps.Media.(pinger); isPinger {
		check("storage", p.Ping(ctx))
	}

	status, label := http.StatusOK, "ready"
	if !ok {
		status, label = http.StatusServiceUnavailable, "not_ready"
	}
	c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(a.started).String()})
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

// Close releases the external clients.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.deps.Redis != nil {
		errs = append(errs, a.deps.Redis.Close())
	}
	if a.deps.Mongo != nil {
		errs = append(errs, a.deps.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
