package video

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/metrics"
)

// SignDirectUpload issues the signed parameters a browser needs to upload
// straight to the media provider. The signature pins folder, preset and
// transformation to the server's settings.
func (uc *SubmitVideoUseCase) SignDirectUpload(ctx context.Context, ownerID uuid.UUID) (*service.SignedUpload, error) {
	_, span := tracer.Start(ctx, "SignDirectUpload")
	defer span.End()

	if ownerID == uuid.Nil {
		return nil, apperror.NewUnauthorized("upload requires an authenticated caller", nil)
	}

	signed, err := uc.provider.SignUpload(uc.uploadOptions())
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to sign upload", err)
	}
	return signed, nil
}

// SaveDirectUploadInput names an object the browser already uploaded. Sizes
// and duration are not accepted from the client; they are read back from
// the provider.
type SaveDirectUploadInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description *string
	PublicID    string
}

func (uc *SubmitVideoUseCase) SaveDirectUpload(ctx context.Context, in SaveDirectUploadInput) (*video.Video, error) {
	ctx, span := tracer.Start(ctx, "SaveDirectUpload")
	defer span.End()
	span.SetAttributes(attribute.String("video.public_id", in.PublicID))

	v, err := uc.saveDirect(ctx, in)
	if err != nil {
		span.RecordError(err)
		metrics.RecordUpload(apperror.Code(err), 0)
		return nil, err
	}
	metrics.RecordUpload("success", v.OriginalSize)
	return v, nil
}

func (uc *SubmitVideoUseCase) saveDirect(ctx context.Context, in SaveDirectUploadInput) (*video.Video, error) {
	if in.OwnerID == uuid.Nil {
		return nil, apperror.NewUnauthorized("upload requires an authenticated caller", nil)
	}
	title, description, err := normalizeText(in.Title, in.Description)
	if err != nil {
		return nil, err
	}
	publicID := strings.TrimSpace(in.PublicID)
	if publicID == "" {
		return nil, apperror.NewInvalidInput("publicId is required", nil)
	}
	if uc.settings.Folder != "" && !strings.HasPrefix(publicID, uc.settings.Folder+"/") {
		return nil, apperror.NewInvalidInput("publicId is outside the upload folder", nil)
	}

	l := uc.logger.With(zap.String("owner_id", in.OwnerID.String()), zap.String("public_id", publicID))

	result, err := uc.inspect(ctx, publicID)
	if err != nil {
		l.Error("Could not verify direct upload", err)
		return nil, err
	}

	if result.Bytes <= 0 {
		return nil, apperror.NewUpstreamUpload("uploaded video is empty", nil)
	}

	// The original never passes through this server, so the stored size is
	// the only trustworthy figure for both sizes.
	v := &video.Video{
		ID:             uuid.New(),
		Title:          title,
		Description:    description,
		PublicID:       result.PublicID,
		OriginalSize:   result.Bytes,
		CompressedSize: result.Bytes,
		Duration:       result.Duration,
		OwnerID:        in.OwnerID,
		CreatedAt:      time.Now().UTC(),
	}

	if result.Bytes > uc.settings.MaxUploadBytes {
		l.Warn("Direct upload exceeds the size limit", zap.Int64("bytes", result.Bytes))
		tooLarge := apperror.NewPayloadTooLarge(uc.settings.MaxUploadBytes)
		// settle only destroys the object when no record references it.
		if err := uc.settle(ctx, v, tooLarge, l); errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, tooLarge
	}

	if err := uc.record(ctx, v, l); err != nil {
		return nil, err
	}

	l.Info("Direct upload saved", zap.Int64("compressed_size", v.CompressedSize), zap.Float64("duration", v.Duration))
	return v, nil
}

func (uc *SubmitVideoUseCase) inspect(ctx context.Context, publicID string) (*service.UploadResult, error) {
	ctx, cancel := withTimeout(ctx, uc.settings.QueryTimeout)
	defer cancel()

	start := time.Now()
	result, err := uc.provider.Inspect(ctx, publicID, service.ResourceTypeVideo)
	if err == nil && (result == nil || result.PublicID != publicID) {
		err = errors.New("provider returned a different asset")
	}
	if err != nil {
		metrics.RecordProviderOperation("inspect", "error", time.Since(start).Seconds())
		if errors.Is(err, service.ErrRemoteNotFound) {
			return nil, apperror.NewUpstreamUpload("uploaded video was not found at the media provider", err)
		}
		return nil, apperror.NewUpstreamUpload("failed to verify uploaded video", err)
	}

	metrics.RecordProviderOperation("inspect", "success", time.Since(start).Seconds())
	return result, nil
}
