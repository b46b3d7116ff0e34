package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/adapters/event"
	httpAdapter "github.com/khoahotran/cloudvid/adapters/http"
	"github.com/khoahotran/cloudvid/adapters/media_storage"
	"github.com/khoahotran/cloudvid/adapters/persistence"
	"github.com/khoahotran/cloudvid/internal/application/service"
	authUC "github.com/khoahotran/cloudvid/internal/application/usecase/auth"
	videoUC "github.com/khoahotran/cloudvid/internal/application/usecase/video"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/pkg/auth"
	"github.com/khoahotran/cloudvid/pkg/logger"
	"github.com/khoahotran/cloudvid/pkg/tracing"
)

const serviceName = "cloudvid-api"

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	if err != nil {
		appLogger.Fatal("Cannot load config", err)
	}
	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid config", err)
	}
	appLogger.Info("Starting cloudvid API server...", zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := tracing.NewTracerProvider(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Cannot init tracer", err)
	}
	defer tracing.Shutdown(tp, appLogger)

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Optional gallery cache
	var galleryCache service.GalleryCache
	redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn("Redis unavailable, gallery cache disabled", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
		galleryCache = persistence.NewRedisGalleryCache(redisClient, cfg.Redis.GalleryTTL)
	}

	// Optional event stream
	var publisher service.EventPublisher
	if kafkaClient := event.NewKafkaProducerClient(cfg, appLogger); kafkaClient != nil {
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	// Media provider
	provider, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize media provider", err)
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	videoRepo := persistence.NewPostgresVideoRepo(dbPool, appLogger)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	settings := videoUC.SettingsFromConfig(cfg)

	// Use Cases
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	submitVideoUseCase := videoUC.NewSubmitVideoUseCase(videoRepo, provider, publisher, galleryCache, settings, appLogger)
	deleteVideoUseCase := videoUC.NewDeleteVideoUseCase(videoRepo, provider, publisher, galleryCache, settings, appLogger)
	listVideosUseCase := videoUC.NewListVideosUseCase(videoRepo, provider, galleryCache, settings, appLogger)
	getVideoUseCase := videoUC.NewGetVideoUseCase(videoRepo, provider, settings)
	rssUseCase := videoUC.NewRSSUseCase(videoRepo, provider, settings, appLogger)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		AuthHandler: httpAdapter.NewAuthHandler(loginUseCase, appLogger),
		VideoHandler: httpAdapter.NewVideoHandler(
			submitVideoUseCase,
			deleteVideoUseCase,
			listVideosUseCase,
			getVideoUseCase,
			settings.MaxUploadBytes,
			appLogger,
		),
		RSSHandler: httpAdapter.NewRSSHandler(rssUseCase, appLogger),
		JWTService: jwtSvc,
		Logger:     appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	appLogger.Info("Server exited")
}
