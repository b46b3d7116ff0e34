package http

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/khoahotran/cloudvid/internal/application/service"
	videoUC "github.com/khoahotran/cloudvid/internal/application/usecase/video"
	"github.com/khoahotran/cloudvid/internal/domain/video"
)

type VideoDTO struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	PublicID       string    `json:"public_id"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Duration       float64   `json:"duration"`
	OwnerID        string    `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToVideoDTO(v *video.Video) VideoDTO {
	return VideoDTO{
		ID:             v.ID.String(),
		Title:          v.Title,
		Description:    v.Description,
		PublicID:       v.PublicID,
		OriginalSize:   v.OriginalSize,
		CompressedSize: v.CompressedSize,
		Duration:       v.Duration,
		OwnerID:        v.OwnerID.String(),
		CreatedAt:      v.CreatedAt,
	}
}

// VideoCardDTO is everything a gallery card renders.
type VideoCardDTO struct {
	VideoDTO
	ThumbnailURL        string `json:"thumbnail_url"`
	PreviewURL          string `json:"preview_url"`
	VideoURL            string `json:"video_url"`
	DownloadFilename    string `json:"download_filename"`
	CompressionPercent  int    `json:"compression_percent"`
	DurationLabel       string `json:"duration_label"`
	OriginalSizeLabel   string `json:"original_size_label"`
	CompressedSizeLabel string `json:"compressed_size_label"`
	UploadedAgo         string `json:"uploaded_ago"`
	IsOwner             bool   `json:"is_owner"`
}

func ToVideoCardDTO(item videoUC.GalleryItem, callerID uuid.UUID) VideoCardDTO {
	v := item.Video
	return VideoCardDTO{
		VideoDTO:            ToVideoDTO(v),
		ThumbnailURL:        item.Renditions.Thumbnail,
		PreviewURL:          item.Renditions.Preview,
		VideoURL:            item.Renditions.Video,
		DownloadFilename:    v.DownloadFilename(),
		CompressionPercent:  v.CompressionPercent(),
		DurationLabel:       v.DurationLabel(),
		OriginalSizeLabel:   humanize.Bytes(uint64(max(v.OriginalSize, 0))),
		CompressedSizeLabel: humanize.Bytes(uint64(max(v.CompressedSize, 0))),
		UploadedAgo:         humanize.Time(v.CreatedAt),
		IsOwner:             v.IsOwnedBy(callerID),
	}
}

type VideoPageDTO struct {
	Items  []VideoCardDTO `json:"items"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type DeleteVideoRequest struct {
	PublicID string `json:"publicId" binding:"required"`
}

type UploadVideoForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
}

// SaveDirectUploadRequest names an object the browser already uploaded.
// Size and duration fields, if sent, are ignored.
type SaveDirectUploadRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	PublicID    string  `json:"publicId" binding:"required"`
}

// SignedUploadDTO carries the form fields the browser posts to UploadURL.
type SignedUploadDTO struct {
	UploadURL      string    `json:"upload_url"`
	CloudName      string    `json:"cloud_name"`
	APIKey         string    `json:"api_key"`
	Timestamp      int64     `json:"timestamp"`
	Signature      string    `json:"signature"`
	Folder         string    `json:"folder,omitempty"`
	UploadPreset   string    `json:"upload_preset,omitempty"`
	Transformation string    `json:"transformation,omitempty"`
	ResourceType   string    `json:"resource_type"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func ToSignedUploadDTO(s *service.SignedUpload) SignedUploadDTO {
	return SignedUploadDTO{
		UploadURL:      s.UploadURL,
		CloudName:      s.CloudName,
		APIKey:         s.APIKey,
		Timestamp:      s.Timestamp,
		Signature:      s.Signature,
		Folder:         s.Folder,
		UploadPreset:   s.UploadPreset,
		Transformation: s.Transformation,
		ResourceType:   s.ResourceType,
		ExpiresAt:      s.ExpiresAt,
	}
}
