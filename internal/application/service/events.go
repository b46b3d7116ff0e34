package service

import (
	"context"

	"github.com/khoahotran/cloudvid/internal/domain/video"
)

type EventPublisher interface {
	PublishVideoEvent(ctx context.Context, e video.Event) error
}
