package video

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Video is the local record of a media object stored at the provider.
// PublicID correlates the two; OwnerID is stamped once from the caller.
type Video struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	PublicID       string    `json:"public_id"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Duration       float64   `json:"duration"`
	OwnerID        uuid.UUID `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListFilter narrows a gallery page. Zero values mean "no filter".
type ListFilter struct {
	Limit   int
	Offset  int
	Query   string
	OwnerID uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, v *Video) error
	FindByPublicID(ctx context.Context, publicID string) (*Video, error)
	DeleteByPublicID(ctx context.Context, publicID string) error
	List(ctx context.Context, filter ListFilter) ([]*Video, error)
}

func (v *Video) IsOwnedBy(callerID uuid.UUID) bool {
	return callerID != uuid.Nil && v.OwnerID == callerID
}

// CompressionPercent is how much smaller the stored rendition is than the
// uploaded file, rounded to the nearest integer. Negative when it grew.
func (v *Video) CompressionPercent() int {
	if v.OriginalSize <= 0 {
		return 0
	}
	return int(math.Round((1 - float64(v.CompressedSize)/float64(v.OriginalSize)) * 100))
}

// DurationLabel formats Duration as m:ss.
func (v *Video) DurationLabel() string {
	total := int(math.Round(v.Duration))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

var whitespace = regexp.MustCompile(`\s+`)

func (v *Video) DownloadFilename() string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(v.Title), "_")
	if name == "" {
		name = "video"
	}
	return name + ".mp4"
}
