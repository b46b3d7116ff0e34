package video

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

// publishEvent and invalidateGallery never fail the request; Kafka and
// Redis are optional.

func publishEvent(ctx context.Context, p service.EventPublisher, e video.Event, l logger.Logger) {
	if p == nil {
		return
	}
	if err := p.PublishVideoEvent(context.WithoutCancel(ctx), e); err != nil {
		l.Error("Failed to publish video event", err, zap.String("event_type", string(e.Type)), zap.String("public_id", e.PublicID))
	}
}

func invalidateGallery(ctx context.Context, c service.GalleryCache, l logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Invalidate(context.WithoutCancel(ctx)); err != nil {
		l.Warn("Failed to invalidate gallery cache", zap.Error(err))
	}
}
