package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/adapters/event"
	"github.com/khoahotran/cloudvid/adapters/media_storage"
	"github.com/khoahotran/cloudvid/adapters/persistence"
	"github.com/khoahotran/cloudvid/internal/application/service"
	videoUC "github.com/khoahotran/cloudvid/internal/application/usecase/video"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/logger"
	"github.com/khoahotran/cloudvid/pkg/tracing"
)

const (
	serviceName = "cloudvid-worker"
	maxAttempts = 5
)

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
	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Worker needs kafka.brokers", errors.New("no brokers configured"))
	}
	appLogger.Info("Starting cloudvid reconcile worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var galleryCache service.GalleryCache
	redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn("Redis unavailable, gallery cache disabled", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
		galleryCache = persistence.NewRedisGalleryCache(redisClient, cfg.Redis.GalleryTTL)
	}

	// Media provider
	provider, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize media provider", err)
	}

	videoRepo := persistence.NewPostgresVideoRepo(dbPool, appLogger)
	reconcileUC := videoUC.NewReconcileVideoUseCase(videoRepo, provider, galleryCache, videoUC.SettingsFromConfig(cfg), appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicVideoEvents,
		GroupID:  "video-reconcile-group",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicVideoEvents))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to fetch message from Kafka", err)
			continue
		}

		l := appLogger.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		e, err := event.DecodeVideoEvent(msg.Value)
		if err != nil {
			l.Error("Skipping undecodable event", err)
			commitMessage(consumer, msg, l)
			continue
		}

		if err := process(ctx, reconcileUC, e, l); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.Error("Giving up on event after retries", err, zap.String("event_type", string(e.Type)))
		}
		commitMessage(consumer, msg, l)
	}
}

// process retries with linear backoff. The event is committed either way;
// a video left behind after the last attempt needs manual cleanup.
func process(ctx context.Context, uc *videoUC.ReconcileVideoUseCase, e video.Event, l logger.Logger) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = uc.Execute(ctx, e); err == nil {
			return nil
		}
		l.Warn("Reconcile attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return err
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, l logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		l.Error("Failed to commit message", err)
	}
}
