package media_storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

// Delivery transformations for the gallery card.
const (
	thumbnailTransformation = "c_fill,g_auto,w_300,h_200,q_auto"
	previewTransformation   = "c_fill,w_400,h_225/e_preview:duration_10:max_seg_9:min_seg_dur_1"
	videoTransformation     = "c_limit,w_1920,h_1080"
)

// Cloudinary rejects signed uploads whose timestamp is older than an hour.
const signatureTTL = time.Hour

var ErrMalformedResult = errors.New("malformed media provider response")

type CloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	logger logger.Logger
}

var _ service.MediaProvider = (*CloudinaryAdapter)(nil)

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (*CloudinaryAdapter, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name is not configured")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Cloudinary client initialized", zap.String("cloud_name", cfg.Cloudinary.CloudName))
	return &CloudinaryAdapter{cld: cld, logger: log}, nil
}

func (a *CloudinaryAdapter) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadResult, error) {
	params := uploader.UploadParams{
		ResourceType:   opts.ResourceType,
		Folder:         opts.Folder,
		UploadPreset:   opts.UploadPreset,
		Transformation: opts.Transformation,
	}

	result, err := a.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	return toUploadResult(result)
}

// toUploadResult maps the raw response onto the fields the domain needs and
// refuses anything incomplete.
func toUploadResult(r *uploader.UploadResult) (*service.UploadResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResult)
	}
	if r.PublicID == "" {
		return nil, fmt.Errorf("%w: missing public_id", ErrMalformedResult)
	}
	if r.SecureURL == "" {
		return nil, fmt.Errorf("%w: missing secure_url", ErrMalformedResult)
	}
	if r.Bytes < 0 {
		return nil, fmt.Errorf("%w: negative bytes %d", ErrMalformedResult, r.Bytes)
	}

	duration, err := durationOf(r.Response)
	if err != nil {
		return nil, err
	}

	return &service.UploadResult{
		PublicID:  r.PublicID,
		Bytes:     int64(r.Bytes),
		Duration:  duration,
		SecureURL: r.SecureURL,
	}, nil
}

// durationOf reads "duration" from the raw response body. The SDK does not
// expose it as a typed field. Missing means zero.
func durationOf(raw interface{}) (float64, error) {
	var fields map[string]interface{}
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case map[string]interface{}:
		fields = v
	case *map[string]interface{}:
		if v != nil {
			fields = *v
		}
	case []byte:
		if err := json.Unmarshal(v, &fields); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &fields); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
	case *json.RawMessage:
		if v != nil {
			if err := json.Unmarshal(*v, &fields); err != nil {
				return 0, fmt.Errorf("%w: %v", ErrMalformedResult, err)
			}
		}
	default:
		return 0, nil
	}

	d, ok := fields["duration"]
	if !ok || d == nil {
		return 0, nil
	}
	seconds, ok := d.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: duration is %T", ErrMalformedResult, d)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("%w: negative duration %v", ErrMalformedResult, seconds)
	}
	return seconds, nil
}

func (a *CloudinaryAdapter) Destroy(ctx context.Context, publicID string, resourceType string) (service.DestroyResult, error) {
	result, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete from cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected delete: %s", result.Error.Message)
	}

	a.logger.Debug("Cloudinary destroy", zap.String("public_id", publicID), zap.String("result", result.Result))
	return service.DestroyResult(result.Result), nil
}

func (a *CloudinaryAdapter) Renditions(publicID string) (service.Renditions, error) {
	thumb, err := a.videoURL(publicID, thumbnailTransformation, ".jpg")
	if err != nil {
		return service.Renditions{}, err
	}
	preview, err := a.videoURL(publicID, previewTransformation, ".mp4")
	if err != nil {
		return service.Renditions{}, err
	}
	full, err := a.videoURL(publicID, videoTransformation, ".mp4")
	if err != nil {
		return service.Renditions{}, err
	}
	return service.Renditions{Thumbnail: thumb, Preview: preview, Video: full}, nil
}

// videoURL builds a delivery URL. The extension selects the output format.
func (a *CloudinaryAdapter) videoURL(publicID, transformation, ext string) (string, error) {
	asset, err := a.cld.Video(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to create cloudinary asset: %w", err)
	}
	asset.Transformation = transformation

	u, err := asset.String()
	if err != nil {
		return "", fmt.Errorf("failed to build video URL: %w", err)
	}
	return u + ext, nil
}

// SignUpload signs the parameters a browser must send to upload straight to
// Cloudinary. The client cannot change folder, preset or transformation
// without invalidating the signature.
func (a *CloudinaryAdapter) SignUpload(opts service.UploadOptions) (*service.SignedUpload, error) {
	now := time.Now().UTC().Truncate(time.Second)
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(now.Unix(), 10))
	if opts.Folder != "" {
		params.Set("folder", opts.Folder)
	}
	if opts.UploadPreset != "" {
		params.Set("upload_preset", opts.UploadPreset)
	}
	if opts.Transformation != "" {
		params.Set("transformation", opts.Transformation)
	}

	signature, err := api.SignParameters(params, a.cld.Config.Cloud.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload parameters: %w", err)
	}

	return &service.SignedUpload{
		UploadURL:      fmt.Sprintf("%s/%s/%s/upload", api.BaseURL(a.cld.Config.API.UploadPrefix, ""), a.cld.Config.Cloud.CloudName, opts.ResourceType),
		CloudName:      a.cld.Config.Cloud.CloudName,
		APIKey:         a.cld.Config.Cloud.APIKey,
		Timestamp:      now.Unix(),
		Signature:      signature,
		Folder:         opts.Folder,
		UploadPreset:   opts.UploadPreset,
		Transformation: opts.Transformation,
		ResourceType:   opts.ResourceType,
		ExpiresAt:      now.Add(signatureTTL),
	}, nil
}

// Inspect reads the stored asset's size and duration from the Admin API.
func (a *CloudinaryAdapter) Inspect(ctx context.Context, publicID string, resourceType string) (*service.UploadResult, error) {
	result, err := a.cld.Admin.Asset(ctx, admin.AssetParams{
		AssetType:     api.AssetType(resourceType),
		DeliveryType:  api.Upload,
		PublicID:      publicID,
		MediaMetadata: api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read asset from cloudinary: %w", err)
	}
	return toInspectResult(publicID, result)
}

func toInspectResult(publicID string, r *admin.AssetResult) (*service.UploadResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResult)
	}
	if r.Error.Message != "" {
		if strings.Contains(strings.ToLower(r.Error.Message), "not found") {
			return nil, fmt.Errorf("%w: %s", service.ErrRemoteNotFound, r.Error.Message)
		}
		return nil, fmt.Errorf("cloudinary rejected asset lookup: %s", r.Error.Message)
	}
	if r.PublicID != publicID {
		return nil, fmt.Errorf("%w: asked for %q, got %q", ErrMalformedResult, publicID, r.PublicID)
	}
	if r.Bytes < 0 {
		return nil, fmt.Errorf("%w: negative bytes %d", ErrMalformedResult, r.Bytes)
	}

	duration, err := durationOf(r.Response)
	if err != nil {
		return nil, err
	}
	if duration == 0 {
		duration = metadataDuration(r.VideoMetadata)
	}

	return &service.UploadResult{
		PublicID:  r.PublicID,
		Bytes:     int64(r.Bytes),
		Duration:  duration,
		SecureURL: r.SecureURL,
	}, nil
}

// metadataDuration reads video_metadata.format.duration, which ffprobe
// reports as a string.
func metadataDuration(m admin.MediaMetadataResult) float64 {
	format, ok := m["format"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch d := format["duration"].(type) {
	case string:
		seconds, err := strconv.ParseFloat(d, 64)
		if err != nil || seconds < 0 {
			return 0
		}
		return seconds
	case float64:
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
