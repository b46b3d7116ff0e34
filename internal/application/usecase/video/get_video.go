package video

import (
	"context"
	"errors"
	"strings"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
)

type GetVideoUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	settings  Settings
}

func NewGetVideoUseCase(r video.Repository, p service.MediaProvider, s Settings) *GetVideoUseCase {
	return &GetVideoUseCase{videoRepo: r, provider: p, settings: s}
}

func (uc *GetVideoUseCase) Execute(ctx context.Context, publicID string) (*GalleryItem, error) {
	ctx, span := tracer.Start(ctx, "GetVideo")
	defer span.End()

	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, apperror.NewInvalidInput("publicId is required", nil)
	}

	qctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	v, err := uc.videoRepo.FindByPublicID(qctx, publicID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewNotFound("video", publicID)
		}
		return nil, apperror.NewPersistence("failed to look up video", err)
	}

	items, err := buildGalleryItems(uc.provider, []*video.Video{v})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}
