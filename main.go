package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kendall-kelly/home-therapy-api/config"
	"github.com/kendall-kelly/home-therapy-api/controllers"
	"github.com/kendall-kelly/home-therapy-api/logger"
	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Options{Env: cfg.GoEnv, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, zlog)
	stop()

	if err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	_ = zlog.Sync()
}

// run builds the application and serves it until ctx is cancelled
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is done, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// app is the wired application and the resources it must release
type app struct {
	router  *gin.Engine
	closers []func() error
	log     *zap.Logger
}

// Close releases the application's connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("failed to close resource", zap.Error(err))
		}
	}
}

// newApp connects the backing services described by cfg and builds the router.
// Redis and Kafka are optional; without them locks and events are no-ops.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return fail(err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := models.AutoMigrate(db); err != nil {
		return fail(fmt.Errorf("failed to migrate database: %w", err))
	}
	log.Info("database migration completed")

	var locker services.Locker = services.NoopLocker{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		a.closers = append(a.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		locker = services.NewRedisLocker(client, cfg.RedisLockTTL, log.Named("lock"))
		log.Info("payment locks backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.KafkaEnabled {
		events = services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log.Named("events"))
		log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	a.closers = append(a.closers, events.Close)

	var images services.ImageService
	switch cfg.StorageDriver {
	case config.StorageS3:
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		images = services.NewS3ImageService(s3Service)
	default:
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return fail(fmt.Errorf("failed to create upload directory: %w", err))
		}
		images = services.NewLocalImageService(cfg.UploadDir)
	}

	var userInfo services.UserInfoFetcher
	if cfg.UsesAuth0() {
		userInfo = services.NewAuth0Service(cfg.Auth0Domain)
	}

	auth, err := middleware.EnsureValidToken(cfg, log.Named("auth"))
	if err != nil {
		return fail(err)
	}

	store := repository.NewStore(db)
	a.router = controllers.NewRouter(controllers.Dependencies{
		Store:          store,
		Orders:         services.NewOrderService(store, events, log),
		Payments:       services.NewPaymentService(store, locker, events, cfg.PaymentGatewayURL, log),
		Feedback:       services.NewFeedbackService(store, events, log),
		Messages:       services.NewMessageService(store, events, log),
		Catalog:        services.NewCatalogService(store, images, log),
		Users:          services.NewUserService(store, userInfo, log),
		Auth:           auth,
		UploadDir:      cfg.UploadDir,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Log:            log,
	})

	return a, nil
}
