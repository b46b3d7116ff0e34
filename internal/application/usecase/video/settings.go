package video

import (
	"context"
	"time"

	"github.com/khoahotran/cloudvid/internal/config"
)

const (
	// Normalized delivery format for stored renditions.
	uploadTransformation = "q_auto,f_mp4"

	defaultPageSize = 30
	maxPageSize     = 100
)

// Settings bound the video use cases. Zero timeouts disable the bound.
type Settings struct {
	MaxUploadBytes int64
	Folder         string
	UploadPreset   string
	UploadTimeout  time.Duration
	DeleteTimeout  time.Duration
	QueryTimeout   time.Duration
	SiteURL        string
}

func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		MaxUploadBytes: cfg.Video.MaxUploadBytes,
		Folder:         cfg.Video.Folder,
		UploadPreset:   cfg.Video.UploadPreset,
		UploadTimeout:  cfg.Video.UploadTimeout,
		DeleteTimeout:  cfg.Video.DeleteTimeout,
		QueryTimeout:   cfg.DB.QueryTimeout,
		SiteURL:        cfg.Gallery.SiteURL,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// detached keeps the values of ctx but survives the client going away. Used
// once a remote mutation has happened and local state must catch up.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return withTimeout(context.WithoutCancel(ctx), d)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
