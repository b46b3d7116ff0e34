package media_storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

func newTestAdapter(t *testing.T) *CloudinaryAdapter {
	t.Helper()
	cfg := config.Config{}
	cfg.Cloudinary.CloudName = "demo"
	cfg.Cloudinary.ApiKey = "key"
	cfg.Cloudinary.ApiSecret = "secret"

	a, err := NewCloudinaryAdapter(cfg, logger.NewNop())
	require.NoError(t, err)
	return a
}

func TestNewCloudinaryAdapter_RequiresCloudName(t *testing.T) {
	_, err := NewCloudinaryAdapter(config.Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestRenditions(t *testing.T) {
	a := newTestAdapter(t)

	r, err := a.Renditions("video-uploads/clip1")
	require.NoError(t, err)

	assert.Contains(t, r.Thumbnail, "/video/upload/")
	assert.Contains(t, r.Thumbnail, "c_fill,g_auto,w_300,h_200,q_auto")
	assert.True(t, strings.HasSuffix(r.Thumbnail, "video-uploads/clip1.jpg"), r.Thumbnail)

	assert.Contains(t, r.Preview, "e_preview:duration_10:max_seg_9:min_seg_dur_1")
	assert.True(t, strings.HasSuffix(r.Preview, "video-uploads/clip1.mp4"), r.Preview)

	assert.Contains(t, r.Video, "c_limit,w_1920,h_1080")
	assert.True(t, strings.HasSuffix(r.Video, "video-uploads/clip1.mp4"), r.Video)
}

func TestToUploadResult(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		res, err := toUploadResult(&uploader.UploadResult{
			PublicID:  "video-uploads/clip1",
			SecureURL: "https://res.cloudinary.com/demo/video/upload/v1/video-uploads/clip1.mp4",
			Bytes:     4_000_000,
			Response:  map[string]interface{}{"duration": 12.5},
		})
		require.NoError(t, err)
		assert.Equal(t, "video-uploads/clip1", res.PublicID)
		assert.Equal(t, int64(4_000_000), res.Bytes)
		assert.Equal(t, 12.5, res.Duration)
	})

	t.Run("raw json body", func(t *testing.T) {
		res, err := toUploadResult(&uploader.UploadResult{
			PublicID:  "a",
			SecureURL: "https://x",
			Response:  []byte(`{"duration": 3.25}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 3.25, res.Duration)
	})

	t.Run("duration not reported", func(t *testing.T) {
		res, err := toUploadResult(&uploader.UploadResult{PublicID: "a", SecureURL: "https://x"})
		require.NoError(t, err)
		assert.Zero(t, res.Duration)
	})

	malformed := map[string]*uploader.UploadResult{
		"nil":              nil,
		"no public_id":     {SecureURL: "https://x"},
		"no secure_url":    {PublicID: "a"},
		"negative bytes":   {PublicID: "a", SecureURL: "https://x", Bytes: -1},
		"negative length":  {PublicID: "a", SecureURL: "https://x", Response: map[string]interface{}{"duration": -2.0}},
		"string duration":  {PublicID: "a", SecureURL: "https://x", Response: map[string]interface{}{"duration": "12"}},
		"unparseable body": {PublicID: "a", SecureURL: "https://x", Response: []byte("{")},
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := toUploadResult(raw)
			assert.ErrorIs(t, err, ErrMalformedResult)
		})
	}
}

func TestSignUpload(t *testing.T) {
	a := newTestAdapter(t)

	signed, err := a.SignUpload(service.UploadOptions{
		ResourceType:   "video",
		Folder:         "video-uploads",
		Transformation: "q_auto,f_mp4",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.cloudinary.com/v1_1/demo/video/upload", signed.UploadURL)
	assert.Equal(t, "demo", signed.CloudName)
	assert.Equal(t, "key", signed.APIKey)
	assert.Empty(t, signed.UploadPreset)
	assert.WithinDuration(t, time.Now(), time.Unix(signed.Timestamp, 0), time.Minute)
	assert.Equal(t, time.Hour, signed.ExpiresAt.Sub(time.Unix(signed.Timestamp, 0)))

	// Sorted params joined with '&', then the secret, SHA-1 hex.
	toSign := fmt.Sprintf("folder=video-uploads&timestamp=%d&transformation=q_auto,f_mp4", signed.Timestamp)
	sum := sha1.Sum([]byte(toSign + "secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), signed.Signature)
}

func TestSignUpload_PresetIsSigned(t *testing.T) {
	a := newTestAdapter(t)

	withPreset, err := a.SignUpload(service.UploadOptions{ResourceType: "video", Folder: "f", UploadPreset: "compress"})
	require.NoError(t, err)

	toSign := fmt.Sprintf("folder=f&timestamp=%d&upload_preset=compress", withPreset.Timestamp)
	sum := sha1.Sum([]byte(toSign + "secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), withPreset.Signature)
	assert.Equal(t, "compress", withPreset.UploadPreset)
}

func TestToInspectResult(t *testing.T) {
	t.Run("top-level duration", func(t *testing.T) {
		raw := map[string]interface{}{"duration": 8.5}
		res, err := toInspectResult("video-uploads/a", &admin.AssetResult{PublicID: "video-uploads/a", Bytes: 1234, Response: &raw})
		require.NoError(t, err)
		assert.Equal(t, int64(1234), res.Bytes)
		assert.Equal(t, 8.5, res.Duration)
	})

	t.Run("duration from media metadata", func(t *testing.T) {
		res, err := toInspectResult("video-uploads/a", &admin.AssetResult{
			PublicID:      "video-uploads/a",
			Bytes:         10,
			VideoMetadata: admin.MediaMetadataResult{"format": map[string]interface{}{"duration": "61.250000"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 61.25, res.Duration)
	})

	t.Run("missing asset", func(t *testing.T) {
		_, err := toInspectResult("video-uploads/a", &admin.AssetResult{Error: api.ErrorResp{Message: "Resource not found - video-uploads/a"}})
		assert.ErrorIs(t, err, service.ErrRemoteNotFound)
	})

	t.Run("other provider error", func(t *testing.T) {
		_, err := toInspectResult("video-uploads/a", &admin.AssetResult{Error: api.ErrorResp{Message: "Rate limit exceeded"}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrRemoteNotFound)
	})

	t.Run("different asset", func(t *testing.T) {
		_, err := toInspectResult("video-uploads/a", &admin.AssetResult{PublicID: "video-uploads/b"})
		assert.ErrorIs(t, err, ErrMalformedResult)
	})
}
