package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
	"github.com/khoahotran/cloudvid/pkg/metrics"
)

type DeleteVideoUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	publisher service.EventPublisher
	cache     service.GalleryCache
	settings  Settings
	logger    logger.Logger
}

func NewDeleteVideoUseCase(
	r video.Repository,
	p service.MediaProvider,
	pub service.EventPublisher,
	c service.GalleryCache,
	s Settings,
	log logger.Logger,
) *DeleteVideoUseCase {
	return &DeleteVideoUseCase{videoRepo: r, provider: p, publisher: pub, cache: c, settings: s, logger: log}
}

type DeleteVideoInput struct {
	CallerID uuid.UUID
	PublicID string
}

// Execute deletes the remote object first and the record second. The
// ownership check happens before either, so a rejected caller causes no
// side effects.
func (uc *DeleteVideoUseCase) Execute(ctx context.Context, in DeleteVideoInput) error {
	ctx, span := tracer.Start(ctx, "DeleteVideo")
	defer span.End()
	span.SetAttributes(attribute.String("video.public_id", in.PublicID))

	if err := uc.delete(ctx, in); err != nil {
		span.RecordError(err)
		metrics.RecordDelete(apperror.Code(err))
		return err
	}
	metrics.RecordDelete("success")
	return nil
}

func (uc *DeleteVideoUseCase) delete(ctx context.Context, in DeleteVideoInput) error {
	if in.CallerID == uuid.Nil {
		return apperror.NewUnauthorized("delete requires an authenticated caller", nil)
	}
	publicID := strings.TrimSpace(in.PublicID)
	if publicID == "" {
		return apperror.NewInvalidInput("publicId is required", nil)
	}

	l := uc.logger.With(zap.String("public_id", publicID), zap.String("caller_id", in.CallerID.String()))

	v, err := uc.find(ctx, publicID)
	if err != nil {
		return err
	}

	if !v.IsOwnedBy(in.CallerID) {
		l.Warn("Rejected delete by non-owner", zap.String("owner_id", v.OwnerID.String()))
		return apperror.NewPermissionDenied("only the owner can delete this video")
	}

	if err := uc.destroy(ctx, publicID, l); err != nil {
		return err
	}

	if err := uc.removeRecord(ctx, publicID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Lost a race with a concurrent delete of the same video.
			l.Info("Record already removed by a concurrent delete")
			return apperror.NewNotFound("video", publicID)
		}
		l.Error("Remote video destroyed but record delete failed", err)
		metrics.RecordCompensation("dangling_record", "queued")
		e := video.NewEvent(video.EventDangling, v)
		e.Reason = err.Error()
		publishEvent(ctx, uc.publisher, e, l)
		return apperror.NewPersistence("failed to delete video record", err)
	}

	invalidateGallery(ctx, uc.cache, l)
	publishEvent(ctx, uc.publisher, video.NewEvent(video.EventDeleted, v), l)

	l.Info("Video deleted")
	return nil
}

func (uc *DeleteVideoUseCase) find(ctx context.Context, publicID string) (*video.Video, error) {
	ctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	v, err := uc.videoRepo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewNotFound("video", publicID)
		}
		return nil, apperror.NewPersistence("failed to look up video", err)
	}
	return v, nil
}

// destroy treats "not found" at the provider as success: the remote side
// is already in the state we want.
func (uc *DeleteVideoUseCase) destroy(ctx context.Context, publicID string, l logger.Logger) error {
	ctx, cancel := withTimeout(ctx, uc.settings.DeleteTimeout)
	defer cancel()

	start := time.Now()
	res, err := uc.provider.Destroy(ctx, publicID, service.ResourceTypeVideo)
	if err == nil && !res.Gone() {
		err = fmt.Errorf("media provider answered %q", res)
	}
	if err != nil {
		metrics.RecordProviderOperation("destroy", "error", time.Since(start).Seconds())
		l.Error("Media provider delete failed, keeping record", err)
		return apperror.NewUpstreamDelete("media provider delete failed", err)
	}

	metrics.RecordProviderOperation("destroy", "success", time.Since(start).Seconds())
	if res == service.DestroyNotFound {
		l.Warn("Remote video was already gone")
	}
	return nil
}

func (uc *DeleteVideoUseCase) removeRecord(ctx context.Context, publicID string) error {
	ctx, cancel := detached(ctx, uc.settings.QueryTimeout)
	defer cancel()
	return uc.videoRepo.DeleteByPublicID(ctx, publicID)
}
