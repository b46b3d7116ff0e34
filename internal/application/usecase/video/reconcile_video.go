package video

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
	"github.com/khoahotran/cloudvid/pkg/metrics"
)

// ReconcileVideoUseCase finishes the half-done work announced by
// video.orphaned and video.dangling events. Returning an error asks the
// worker to retry the event.
type ReconcileVideoUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	cache     service.GalleryCache
	settings  Settings
	logger    logger.Logger
}

func NewReconcileVideoUseCase(r video.Repository, p service.MediaProvider, c service.GalleryCache, s Settings, log logger.Logger) *ReconcileVideoUseCase {
	return &ReconcileVideoUseCase{videoRepo: r, provider: p, cache: c, settings: s, logger: log}
}

func (uc *ReconcileVideoUseCase) Execute(ctx context.Context, e video.Event) error {
	l := uc.logger.With(zap.String("public_id", e.PublicID), zap.String("event_type", string(e.Type)))

	if e.PublicID == "" {
		l.Warn("Event without public_id, skipping")
		return nil
	}

	switch e.Type {
	case video.EventOrphaned:
		return uc.destroyOrphan(ctx, e, l)
	case video.EventDangling:
		return uc.removeDangling(ctx, e, l)
	default:
		l.Debug("Nothing to reconcile")
		return nil
	}
}

func (uc *ReconcileVideoUseCase) destroyOrphan(ctx context.Context, e video.Event, l logger.Logger) error {
	qctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	// A later upload or a retry may have recorded it after all.
	_, err := uc.videoRepo.FindByPublicID(qctx, e.PublicID)
	if err == nil {
		l.Info("Remote video is referenced by a record, not an orphan")
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("look up orphan candidate: %w", err)
	}

	dctx, dcancel := withTimeout(ctx, uc.settings.DeleteTimeout)
	defer dcancel()
	res, err := uc.provider.Destroy(dctx, e.PublicID, service.ResourceTypeVideo)
	if err == nil && !res.Gone() {
		err = fmt.Errorf("media provider answered %q", res)
	}
	if err != nil {
		metrics.RecordCompensation("orphan_sweep", "failed")
		return fmt.Errorf("destroy orphan: %w", err)
	}

	metrics.RecordCompensation("orphan_sweep", "success")
	l.Info("Destroyed orphaned remote video")
	return nil
}

func (uc *ReconcileVideoUseCase) removeDangling(ctx context.Context, e video.Event, l logger.Logger) error {
	qctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	err := uc.videoRepo.DeleteByPublicID(qctx, e.PublicID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		metrics.RecordCompensation("dangling_record", "failed")
		return fmt.Errorf("delete dangling record: %w", err)
	}

	metrics.RecordCompensation("dangling_record", "success")
	invalidateGallery(ctx, uc.cache, l)
	l.Info("Removed record of destroyed remote video")
	return nil
}
