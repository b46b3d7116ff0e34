package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
	"github.com/khoahotran/cloudvid/pkg/metrics"
)

// Bytes inspected to detect the content type.
const sniffLength = 3072

var tracer = otel.Tracer("video_usecase")

type SubmitVideoUseCase struct {
	videoRepo video.Repository
	provider  service.MediaProvider
	publisher service.EventPublisher
	cache     service.GalleryCache
	settings  Settings
	logger    logger.Logger
}

func NewSubmitVideoUseCase(
	r video.Repository,
	p service.MediaProvider,
	pub service.EventPublisher,
	c service.GalleryCache,
	s Settings,
	log logger.Logger,
) *SubmitVideoUseCase {
	return &SubmitVideoUseCase{videoRepo: r, provider: p, publisher: pub, cache: c, settings: s, logger: log}
}

// SubmitVideoInput carries the upload. OwnerID is the resolved caller and
// is the only source of the record's owner.
type SubmitVideoInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description *string
	File        io.Reader
	Size        int64
	Filename    string
}

func (uc *SubmitVideoUseCase) Execute(ctx context.Context, in SubmitVideoInput) (*video.Video, error) {
	ctx, span := tracer.Start(ctx, "SubmitVideo")
	defer span.End()
	span.SetAttributes(attribute.Int64("video.size", in.Size))

	v, err := uc.submit(ctx, in)
	if err != nil {
		span.RecordError(err)
		metrics.RecordUpload(apperror.Code(err), in.Size)
		return nil, err
	}

	span.SetAttributes(attribute.String("video.public_id", v.PublicID))
	metrics.RecordUpload("success", in.Size)
	return v, nil
}

func (uc *SubmitVideoUseCase) submit(ctx context.Context, in SubmitVideoInput) (*video.Video, error) {
	if in.OwnerID == uuid.Nil {
		return nil, apperror.NewUnauthorized("upload requires an authenticated caller", nil)
	}
	if in.File == nil || in.Size <= 0 {
		return nil, apperror.NewInvalidInput("file is empty", nil)
	}
	if in.Size > uc.settings.MaxUploadBytes {
		return nil, apperror.NewPayloadTooLarge(uc.settings.MaxUploadBytes)
	}

	title, description, err := normalizeText(in.Title, in.Description)
	if err != nil {
		return nil, err
	}

	file, mimeType, err := sniffVideo(in.File, in.Size)
	if err != nil {
		return nil, err
	}

	l := uc.logger.With(
		zap.String("owner_id", in.OwnerID.String()),
		zap.String("filename", in.Filename),
		zap.String("mime", mimeType),
		zap.Int64("size", in.Size),
	)

	result, err := uc.upload(ctx, file)
	if err != nil {
		l.Error("Media provider upload failed", err)
		return nil, err
	}
	l = l.With(zap.String("public_id", result.PublicID))

	v := &video.Video{
		ID:             uuid.New(),
		Title:          title,
		Description:    description,
		PublicID:       result.PublicID,
		OriginalSize:   in.Size,
		CompressedSize: result.Bytes,
		Duration:       result.Duration,
		OwnerID:        in.OwnerID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := uc.record(ctx, v, l); err != nil {
		return nil, err
	}

	l.Info("Video uploaded", zap.Int64("compressed_size", v.CompressedSize), zap.Float64("duration", v.Duration))
	return v, nil
}

func (uc *SubmitVideoUseCase) uploadOptions() service.UploadOptions {
	return service.UploadOptions{
		ResourceType:   service.ResourceTypeVideo,
		Folder:         uc.settings.Folder,
		UploadPreset:   uc.settings.UploadPreset,
		Transformation: uploadTransformation,
	}
}

func (uc *SubmitVideoUseCase) upload(ctx context.Context, file io.Reader) (*service.UploadResult, error) {
	ctx, cancel := withTimeout(ctx, uc.settings.UploadTimeout)
	defer cancel()

	start := time.Now()
	result, err := uc.provider.Upload(ctx, file, uc.uploadOptions())
	if err == nil && (result == nil || result.PublicID == "") {
		err = errors.New("provider returned no public_id")
	}
	if err != nil {
		metrics.RecordProviderOperation("upload", "error", time.Since(start).Seconds())
		return nil, apperror.NewUpstreamUpload("media provider upload failed", err)
	}

	metrics.RecordProviderOperation("upload", "success", time.Since(start).Seconds())
	return result, nil
}

// record saves the row for an object that already exists remotely, then
// announces it. On failure the remote object is compensated so that no
// record-less object survives.
func (uc *SubmitVideoUseCase) record(ctx context.Context, v *video.Video, l logger.Logger) error {
	err := uc.persist(ctx, v)
	if errors.Is(err, apperror.ErrConflict) {
		// The remote object is already referenced by an existing record.
		l.Warn("Upload returned a public_id that is already recorded")
		return err
	}
	if err != nil {
		l.Error("Failed to persist uploaded video", err)
		if err = uc.settle(ctx, v, err, l); err != nil {
			return err
		}
	}

	invalidateGallery(ctx, uc.cache, l)
	publishEvent(ctx, uc.publisher, video.NewEvent(video.EventUploaded, v), l)
	return nil
}

// persist runs detached from the request: the remote object already exists
// and a client disconnect must not turn into an orphan.
func (uc *SubmitVideoUseCase) persist(ctx context.Context, v *video.Video) error {
	ctx, cancel := detached(ctx, uc.settings.QueryTimeout)
	defer cancel()
	return uc.videoRepo.Create(ctx, v)
}

// settle handles a failed insert. The insert may have committed before the
// error surfaced, so the record is looked up before anything is destroyed.
// A nil return means the row is in place after all.
func (uc *SubmitVideoUseCase) settle(ctx context.Context, v *video.Video, cause error, l logger.Logger) error {
	qctx, cancel := detached(ctx, uc.settings.QueryTimeout)
	defer cancel()

	existing, err := uc.videoRepo.FindByPublicID(qctx, v.PublicID)
	switch {
	case err == nil && existing.ID == v.ID:
		l.Warn("Insert reported an error but the record was committed")
		return nil
	case err == nil:
		l.Warn("Upload returned a public_id that is already recorded")
		return apperror.NewConflict("video", "public_id", v.PublicID)
	case errors.Is(err, apperror.ErrNotFound):
		uc.rollback(ctx, v, l)
	default:
		// Destroying now could strand a committed row. The worker checks
		// for a record again before it destroys anything.
		l.Error("Cannot tell whether the record was saved, deferring cleanup", err)
		metrics.RecordCompensation("upload_rollback", "deferred")
		e := video.NewEvent(video.EventOrphaned, v)
		e.Reason = cause.Error()
		publishEvent(ctx, uc.publisher, e, l)
	}
	return apperror.NewPersistence("failed to record uploaded video", cause)
}

// rollback destroys the remote object of a record that could not be saved.
// When that fails too, the orphan is handed to the reconciliation worker.
func (uc *SubmitVideoUseCase) rollback(ctx context.Context, v *video.Video, l logger.Logger) {
	dctx, cancel := detached(ctx, uc.settings.DeleteTimeout)
	defer cancel()

	res, err := uc.provider.Destroy(dctx, v.PublicID, service.ResourceTypeVideo)
	if err == nil && res.Gone() {
		metrics.RecordCompensation("upload_rollback", "success")
		l.Warn("Rolled back remote upload after persistence failure")
		return
	}
	if err == nil {
		err = fmt.Errorf("unexpected destroy result %q", res)
	}

	metrics.RecordCompensation("upload_rollback", "failed")
	l.Error("Orphaned remote video: rollback failed", err)

	e := video.NewEvent(video.EventOrphaned, v)
	e.Reason = err.Error()
	publishEvent(ctx, uc.publisher, e, l)
}

func normalizeText(title string, description *string) (string, *string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, apperror.NewInvalidInput("title is required", nil)
	}
	if utf8.RuneCountInString(title) > video.MaxTitleLength {
		return "", nil, apperror.NewInvalidInput(fmt.Sprintf("title is longer than %d characters", video.MaxTitleLength), nil)
	}

	if description == nil {
		return title, nil, nil
	}
	d := strings.TrimSpace(*description)
	if d == "" {
		return title, nil, nil
	}
	if utf8.RuneCountInString(d) > video.MaxDescriptionLength {
		return "", nil, apperror.NewInvalidInput(fmt.Sprintf("description is longer than %d characters", video.MaxDescriptionLength), nil)
	}
	return title, &d, nil
}

// sniffVideo checks the leading bytes and returns a reader over the whole
// file. Seekable inputs come back as an *io.SectionReader so the provider
// SDK can send them in chunks; anything else replays the sniffed prefix.
func sniffVideo(r io.Reader, size int64) (io.Reader, string, error) {
	head := make([]byte, sniffLength)

	var n int
	var err error
	ra, seekable := r.(io.ReaderAt)
	if seekable {
		n, err = ra.ReadAt(head, 0)
	} else {
		n, err = io.ReadFull(r, head)
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", apperror.NewInvalidInput("failed to read file", err)
	}
	if n == 0 {
		return nil, "", apperror.NewInvalidInput("file is empty", nil)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "video/") {
		return nil, "", apperror.NewInvalidInput(fmt.Sprintf("file is not a video (detected %s)", mtype.String()), nil)
	}
	if seekable {
		return io.NewSectionReader(ra, 0, size), mtype.String(), nil
	}
	return io.MultiReader(bytes.NewReader(head), r), mtype.String(), nil
}
