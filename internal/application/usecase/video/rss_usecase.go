package video

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

const feedSize = 20

type RSSUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	settings  Settings
	logger    logger.Logger
}

func NewRSSUseCase(r video.Repository, p service.MediaProvider, s Settings, log logger.Logger) *RSSUseCase {
	return &RSSUseCase{videoRepo: r, provider: p, settings: s, logger: log}
}

// Execute builds a feed of the latest uploads, each item enclosing the
// full mp4 rendition.
func (uc *RSSUseCase) Execute(ctx context.Context) (*feeds.Feed, error) {
	ctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	videos, err := uc.videoRepo.List(ctx, video.ListFilter{Limit: feedSize})
	if err != nil {
		uc.logger.Error("Failed to list videos for RSS", err)
		return nil, apperror.NewPersistence("failed to list videos", err)
	}

	siteURL := strings.TrimSuffix(uc.settings.SiteURL, "/")
	feed := &feeds.Feed{
		Title:       "cloudvid - latest videos",
		Link:        &feeds.Link{Href: siteURL},
		Description: "Recently uploaded videos.",
		Created:     time.Now(),
	}

	items, err := buildGalleryItems(uc.provider, videos)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		v := it.Video
		item := &feeds.Item{
			Id:      v.PublicID,
			Title:   v.Title,
			Link:    &feeds.Link{Href: siteURL + "/videos/" + v.PublicID},
			Created: v.CreatedAt,
			Enclosure: &feeds.Enclosure{
				Url:    it.Renditions.Video,
				Length: strconv.FormatInt(v.CompressedSize, 10),
				Type:   "video/mp4",
			},
		}
		if v.Description != nil {
			item.Description = *v.Description
		}
		feed.Items = append(feed.Items, item)
	}

	uc.logger.Debug("RSS feed generated", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
