package video

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

// GalleryItem is a record plus its delivery URLs.
type GalleryItem struct {
	Video      *video.Video
	Renditions service.Renditions
}

type ListVideosUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	cache     service.GalleryCache
	settings  Settings
	logger    logger.Logger
}

func NewListVideosUseCase(r video.Repository, p service.MediaProvider, c service.GalleryCache, s Settings, log logger.Logger) *ListVideosUseCase {
	return &ListVideosUseCase{videoRepo: r, provider: p, cache: c, settings: s, logger: log}
}

type ListVideosInput struct {
	Limit   int
	Offset  int
	Query   string
	OwnerID uuid.UUID
}

type ListVideosOutput struct {
	Items  []GalleryItem
	Limit  int
	Offset int
}

func (uc *ListVideosUseCase) Execute(ctx context.Context, in ListVideosInput) (*ListVideosOutput, error) {
	ctx, span := tracer.Start(ctx, "ListVideos")
	defer span.End()

	limit, offset := normalizePage(in.Limit, in.Offset)
	filter := video.ListFilter{Limit: limit, Offset: offset, Query: strings.TrimSpace(in.Query), OwnerID: in.OwnerID}
	span.SetAttributes(attribute.Int("page.limit", limit), attribute.Int("page.offset", offset))

	videos, err := uc.list(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	items, err := buildGalleryItems(uc.provider, videos)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &ListVideosOutput{Items: items, Limit: limit, Offset: offset}, nil
}

func (uc *ListVideosUseCase) list(ctx context.Context, filter video.ListFilter) ([]*video.Video, error) {
	cacheable := uc.cache != nil && filter.Query == "" && filter.OwnerID == uuid.Nil

	var version int64
	if cacheable {
		var err error
		if version, err = uc.cache.Version(ctx); err != nil {
			uc.logger.Warn("Gallery cache version read failed", zap.Error(err))
			cacheable = false
		}
	}

	if cacheable {
		videos, ok, err := uc.cache.GetPage(ctx, version, filter.Limit, filter.Offset)
		if err != nil {
			uc.logger.Warn("Gallery cache read failed", zap.Error(err))
		} else if ok {
			return videos, nil
		}
	}

	qctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()
	videos, err := uc.videoRepo.List(qctx, filter)
	if err != nil {
		return nil, apperror.NewPersistence("failed to list videos", err)
	}

	if cacheable {
		if err := uc.cache.SetPage(ctx, version, filter.Limit, filter.Offset, videos); err != nil {
			uc.logger.Warn("Gallery cache write failed", zap.Error(err))
		}
	}
	return videos, nil
}

func buildGalleryItems(p service.MediaProvider, videos []*video.Video) ([]GalleryItem, error) {
	items := make([]GalleryItem, 0, len(videos))
	for _, v := range videos {
		r, err := p.Renditions(v.PublicID)
		if err != nil {
			return nil, apperror.NewInternal("failed to build rendition URLs", err)
		}
		items = append(items, GalleryItem{Video: v, Renditions: r})
	}
	return items, nil
}
