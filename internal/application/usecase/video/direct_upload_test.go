package video

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
)

func TestSignDirectUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a caller", func(t *testing.T) {
		f := newUploadFixture()

		_, err := f.uc.SignDirectUpload(ctx, uuid.Nil)

		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		f.provider.AssertNotCalled(t, "SignUpload", mock.Anything)
	})

	t.Run("signs the server's upload options", func(t *testing.T) {
		f := newUploadFixture()
		want := &service.SignedUpload{Signature: "abc", Timestamp: 1700000000, ExpiresAt: time.Now().Add(time.Hour)}
		f.provider.On("SignUpload", service.UploadOptions{
			ResourceType:   "video",
			Folder:         "video-uploads",
			Transformation: "q_auto,f_mp4",
		}).Return(want, nil)

		got, err := f.uc.SignDirectUpload(ctx, uuid.New())

		require.NoError(t, err)
		assert.Same(t, want, got)
	})

	t.Run("signing failure", func(t *testing.T) {
		f := newUploadFixture()
		f.provider.On("SignUpload", mock.Anything).Return(nil, errors.New("no secret"))

		_, err := f.uc.SignDirectUpload(ctx, uuid.New())

		assert.ErrorIs(t, err, apperror.ErrInternal)
	})
}

func directInput(owner uuid.UUID, publicID string) SaveDirectUploadInput {
	return SaveDirectUploadInput{OwnerID: owner, Title: " Direct ", PublicID: publicID}
}

func TestSaveDirectUpload_Rejections(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		in   SaveDirectUploadInput
		want error
	}{
		"unauthenticated":       {directInput(uuid.Nil, "video-uploads/a"), apperror.ErrUnauthorized},
		"missing title":         {SaveDirectUploadInput{OwnerID: uuid.New(), PublicID: "video-uploads/a"}, apperror.ErrInvalidInput},
		"missing public id":     {directInput(uuid.New(), "  "), apperror.ErrInvalidInput},
		"outside the folder":    {directInput(uuid.New(), "other/a"), apperror.ErrInvalidInput},
		"folder name as prefix": {directInput(uuid.New(), "video-uploads-evil/a"), apperror.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newUploadFixture()

			_, err := f.uc.SaveDirectUpload(ctx, tc.in)

			assert.ErrorIs(t, err, tc.want)
			f.provider.AssertNotCalled(t, "Inspect", mock.Anything, mock.Anything, mock.Anything)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveDirectUpload_ReadsFiguresFromProvider(t *testing.T) {
	f := newUploadFixture()
	owner := uuid.New()
	f.provider.On("Inspect", mock.Anything, "video-uploads/d1", "video").
		Return(&service.UploadResult{PublicID: "video-uploads/d1", Bytes: 3_000_000, Duration: 42.5}, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*video.Video")).Return(nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)
	f.publisher.On("PublishVideoEvent", mock.Anything, eventOfType(video.EventUploaded)).Return(nil)

	v, err := f.uc.SaveDirectUpload(context.Background(), directInput(owner, "video-uploads/d1"))

	require.NoError(t, err)
	assert.Equal(t, owner, v.OwnerID)
	assert.Equal(t, "Direct", v.Title)
	assert.Equal(t, int64(3_000_000), v.CompressedSize)
	assert.Equal(t, int64(3_000_000), v.OriginalSize)
	assert.Equal(t, 42.5, v.Duration)
	f.repo.AssertCalled(t, "Create", mock.Anything, v)
	f.cache.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestSaveDirectUpload_MissingAsset(t *testing.T) {
	f := newUploadFixture()
	f.provider.On("Inspect", mock.Anything, "video-uploads/ghost", "video").
		Return(nil, fmt.Errorf("%w: Resource not found", service.ErrRemoteNotFound))

	_, err := f.uc.SaveDirectUpload(context.Background(), directInput(uuid.New(), "video-uploads/ghost"))

	assert.ErrorIs(t, err, apperror.ErrUpstreamUpload)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveDirectUpload_ProviderReturnsOtherAsset(t *testing.T) {
	f := newUploadFixture()
	f.provider.On("Inspect", mock.Anything, "video-uploads/a", "video").
		Return(&service.UploadResult{PublicID: "video-uploads/b", Bytes: 10}, nil)

	_, err := f.uc.SaveDirectUpload(context.Background(), directInput(uuid.New(), "video-uploads/a"))

	assert.ErrorIs(t, err, apperror.ErrUpstreamUpload)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaveDirectUpload_OversizedAssetIsDestroyed(t *testing.T) {
	f := newUploadFixture()
	limit := testSettings().MaxUploadBytes
	f.provider.On("Inspect", mock.Anything, "video-uploads/huge", "video").
		Return(&service.UploadResult{PublicID: "video-uploads/huge", Bytes: limit + 1}, nil)
	f.repo.On("FindByPublicID", mock.Anything, "video-uploads/huge").Return(nil, apperror.NewNotFound("video", "video-uploads/huge"))
	f.provider.On("Destroy", mock.Anything, "video-uploads/huge", "video").Return(service.DestroyOK, nil)

	_, err := f.uc.SaveDirectUpload(context.Background(), directInput(uuid.New(), "video-uploads/huge"))

	assert.ErrorIs(t, err, apperror.ErrPayloadTooLarge)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.provider.AssertExpectations(t)
}

func TestSaveDirectUpload_OversizedButRecordedIsKept(t *testing.T) {
	f := newUploadFixture()
	limit := testSettings().MaxUploadBytes
	f.provider.On("Inspect", mock.Anything, "video-uploads/old", "video").
		Return(&service.UploadResult{PublicID: "video-uploads/old", Bytes: limit + 1}, nil)
	f.repo.On("FindByPublicID", mock.Anything, "video-uploads/old").Return(&video.Video{ID: uuid.New(), PublicID: "video-uploads/old"}, nil)

	_, err := f.uc.SaveDirectUpload(context.Background(), directInput(uuid.New(), "video-uploads/old"))

	assert.ErrorIs(t, err, apperror.ErrConflict)
	f.provider.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveDirectUpload_AlreadyRecorded(t *testing.T) {
	f := newUploadFixture()
	f.provider.On("Inspect", mock.Anything, "video-uploads/dup", "video").
		Return(&service.UploadResult{PublicID: "video-uploads/dup", Bytes: 10}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(apperror.NewConflict("video", "public_id", "video-uploads/dup"))

	_, err := f.uc.SaveDirectUpload(context.Background(), directInput(uuid.New(), "video-uploads/dup"))

	assert.ErrorIs(t, err, apperror.ErrConflict)
	f.provider.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
}
