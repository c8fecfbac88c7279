package app

import (
	"FileCollab/config"
	"FileCollab/internal/service"
	"FileCollab/internal/storage"
	"FileCollab/internal/storage/cache"
	"FileCollab/internal/storage/content"
	"FileCollab/internal/storage/postgres"
	"FileCollab/internal/transport"
	"FileCollab/pkg/logger"
	"FileCollab/pkg/metrics"
	"FileCollab/pkg/ratelimit"
	"FileCollab/pkg/token"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdleTTL  = 10 * time.Minute
)

type App struct {
	Config  *config.Config
	Router  *gin.Engine
	log     zerolog.Logger
	db      postgres.DBPool
	limiter *ratelimit.Limiter
	closers []func() error
}

func InitApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config error: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConn, err := postgres.InitDb(ctx, cfg.DbURL)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}
	if err := postgres.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("database migration error: %w", err)
	}

	a := &App{
		Config: cfg,
		log:    log,
		db:     dbConn,
	}

	store, err := a.contentStore(ctx)
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	listingCache, err := a.listingCache(ctx)
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	userStorage := storage.NewUserStorage(dbConn, log)
	folderStorage := storage.NewFolderStorage(dbConn, log)
	fileStorage := storage.NewFileStorage(dbConn, log)
	shareStorage := storage.NewShareStorage(dbConn, log)

	m := metrics.New()
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	a.limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, limiterIdleTTL)

	access := service.NewAccessService(folderStorage, fileStorage, shareStorage, listingCache, log)
	services := transport.Services{
		Auth:    service.NewAuthService(userStorage, issuer, cfg.AdminEmailDomain, log),
		Folders: service.NewFolderService(folderStorage, fileStorage, shareStorage, listingCache, log),
		Files: service.NewFileService(service.FileDeps{
			Files:   fileStorage,
			Folders: folderStorage,
			Shares:  shareStorage,
			Users:   userStorage,
			Access:  access,
			Store:   store,
			Cache:   listingCache,
			Metrics: m,
		}, log),
		Access:      access,
		Annotations: service.NewAnnotationService(fileStorage, userStorage, m, log),
		Shares:      service.NewShareService(shareStorage, userStorage, fileStorage, folderStorage, listingCache, m, log),
	}

	handler := transport.NewHandler(services, m, a.limiter, cfg.CORSOrigins, log)
	a.Router = handler.InitRouter()

	return a, nil
}

func (a *App) contentStore(ctx context.Context) (content.Store, error) {
	cfg := a.Config.Content
	if cfg.Backend == "s3" {
		client, err := content.NewS3Client(ctx, content.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			KeyPrefix:       cfg.S3.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client error: %w", err)
		}
		a.log.Info().Str("bucket", cfg.S3.Bucket).Msg("storing content in s3")
		return content.NewS3Store(client, cfg.S3.Bucket, cfg.S3.KeyPrefix), nil
	}

	store, err := content.NewLocalStore(cfg.LocalPath, a.log)
	if err != nil {
		return nil, fmt.Errorf("can't init local storage: %w", err)
	}
	a.log.Info().Str("path", cfg.LocalPath).Msg("storing content on disk")
	return store, nil
}

func (a *App) listingCache(ctx context.Context) (cache.Cache, error) {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		return cache.NewStructuredCache(), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("redis connection error: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.log.Info().Str("addr", cfg.Addr).Msg("caching listings in redis")
	return cache.NewRedisCache(client, cfg.TTL, a.log), nil
}

// sweepLimiter drops idle client buckets until ctx is done.
func (a *App) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.log.Debug().Int("removed", n).Msg("rate limiter sweep")
			}
		}
	}
}

func (a *App) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Warn().Err(err).Msg("close error")
		}
	}
	a.db.Close()
}

// Run serves until SIGINT or SIGTERM and then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	go a.sweepLimiter(ctx)

	server := &http.Server{
		Addr:              a.Config.ServerAddres,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", server.Addr).Msg("run server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
