package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/config"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/redis"
	"github.com/MrSnakeDoc/bookmarkhub/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
	redisstore "github.com/MrSnakeDoc/bookmarkhub/internal/store/redis"
	"github.com/MrSnakeDoc/bookmarkhub/internal/utils"
	"github.com/MrSnakeDoc/bookmarkhub/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	collector    *scheduler.SessionCollector
	homepageSync *scheduler.HomepageSync
}

// New loads the configuration, connects to Redis and wires every component.
// Redis is required: New fails if it stays unreachable for the whole
// connect timeout.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Pretty:     cfg.PrettyLog,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
		MaxBackups: cfg.LogMaxBackups,
	})

	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)
	workspace := index.NewWorkspace()
	svc := service.New(store, workspace, loggerClient)
	authSvc := auth.NewService(store, cfg.SessionTTL, 0)

	collector := scheduler.NewSessionCollector(
		store,
		workspace,
		loggerClient,
		cfg.SessionGCInterval,
		scheduler.DefaultOrderingIdle,
	)

	var homepageSync *scheduler.HomepageSync
	var syncTrigger chan struct{}
	var lastSync func() time.Time
	if cfg.HomepageBookmarkFile != "" {
		loggerClient.Info("homepage bookmark file configured, enabling sync",
			logger.String("file", cfg.HomepageBookmarkFile),
			logger.String("user", cfg.HomepageSyncUser))
		syncTrigger = make(chan struct{}, 1)
		homepageSync = scheduler.NewHomepageSync(
			cfg.HomepageBookmarkFile,
			cfg.HomepageSyncUser,
			store,
			svc,
			loggerClient,
			cfg.HomepageSyncInterval,
			syncTrigger,
		)
		lastSync = homepageSync.LastSync
	} else {
		loggerClient.Info("homepage bookmark file not configured, sync disabled")
	}

	build := version.Get()
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            build.Version,
		Commit:             build.Commit,
		BuildDate:          build.BuildDate,
		GoVersion:          build.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		CORSOrigins:        cfg.CORSOrigins,
		RedisClient:        redisClient,
		Service:            svc,
		Auth:               authSvc,
		Workspace:          workspace,
		SessionCookie:      cfg.SessionCookie,
		ImportMaxBytes:     cfg.ImportMaxBytes,
		SignInBurst:        cfg.SignInBurst,
		SignInRefillPerMin: cfg.SignInRefillPerMin,
		SyncTrigger:        syncTrigger,
		LastSync:           lastSync,
	}

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       httpserver.New(cfg, loggerClient, d),
		redisClient:  redisClient,
		collector:    collector,
		homepageSync: homepageSync,
	}, nil
}

// Run serves until ctx is cancelled or the server fails, then shuts
// everything down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	build := version.Get()
	a.logger.Infof("Starting bookmarkhub %s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Infof("bookmarkhub %s (commit=%s, built=%s, go=%s)",
		build.Version, build.Commit, build.BuildDate, build.GoVersion)

	defer utils.CloseLogged(a.redisClient, a.logger, "redis")

	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session collector: %w", err)
	}
	defer a.collector.Stop()
	a.logger.Info("session collector started",
		logger.Duration("interval", a.cfg.SessionGCInterval))

	if a.homepageSync != nil {
		if err := a.homepageSync.Start(ctx); err != nil {
			return fmt.Errorf("failed to start homepage sync: %w", err)
		}
		defer a.homepageSync.Stop()
		a.logger.Info("homepage sync started",
			logger.Duration("interval", a.cfg.HomepageSyncInterval))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("bookmarkhub stopped cleanly")
	return nil
}
