package service

import (
	"context"

	"github.com/khoahotran/cloudvid/internal/domain/video"
)

// GalleryCache holds unfiltered gallery pages. Errors are never fatal to
// callers; a miss falls through to the repository.
//
// Pages are stored under the version read before the repository query, so a
// page built from rows older than the latest Invalidate is never served.
type GalleryCache interface {
	Version(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, version int64, limit, offset int) ([]*video.Video, bool, error)
	SetPage(ctx context.Context, version int64, limit, offset int, videos []*video.Video) error
	Invalidate(ctx context.Context) error
}
