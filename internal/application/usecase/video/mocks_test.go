package video

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/video"
)

type MockVideoRepository struct {
	mock.Mock
}

func (m *MockVideoRepository) Create(ctx context.Context, v *video.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVideoRepository) FindByPublicID(ctx context.Context, publicID string) (*video.Video, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*video.Video), args.Error(1)
}

func (m *MockVideoRepository) DeleteByPublicID(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

func (m *MockVideoRepository) List(ctx context.Context, filter video.ListFilter) ([]*video.Video, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*video.Video), args.Error(1)
}

type MockMediaProvider struct {
	mock.Mock
}

func (m *MockMediaProvider) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadResult, error) {
	args := m.Called(ctx, file, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockMediaProvider) Destroy(ctx context.Context, publicID string, resourceType string) (service.DestroyResult, error) {
	args := m.Called(ctx, publicID, resourceType)
	return args.Get(0).(service.DestroyResult), args.Error(1)
}

func (m *MockMediaProvider) Renditions(publicID string) (service.Renditions, error) {
	args := m.Called(publicID)
	return args.Get(0).(service.Renditions), args.Error(1)
}

func (m *MockMediaProvider) SignUpload(opts service.UploadOptions) (*service.SignedUpload, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedUpload), args.Error(1)
}

func (m *MockMediaProvider) Inspect(ctx context.Context, publicID string, resourceType string) (*service.UploadResult, error) {
	args := m.Called(ctx, publicID, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishVideoEvent(ctx context.Context, e video.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockGalleryCache struct {
	mock.Mock
}

func (m *MockGalleryCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGalleryCache) GetPage(ctx context.Context, version int64, limit, offset int) ([]*video.Video, bool, error) {
	args := m.Called(ctx, version, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*video.Video), args.Bool(1), args.Error(2)
}

func (m *MockGalleryCache) SetPage(ctx context.Context, version int64, limit, offset int, videos []*video.Video) error {
	args := m.Called(ctx, version, limit, offset, videos)
	return args.Error(0)
}

func (m *MockGalleryCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testSettings() Settings {
	return Settings{
		MaxUploadBytes: 100 * 1024 * 1024,
		Folder:         "video-uploads",
		SiteURL:        "http://localhost:3000",
	}
}

// mp4Bytes returns n bytes that content sniffing recognises as video/mp4.
func mp4Bytes(n int) []byte {
	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'}
	if n < len(header) {
		n = len(header)
	}
	b := make([]byte, n)
	copy(b, header)
	return b
}

func eventOfType(t video.EventType) interface{} {
	return mock.MatchedBy(func(e video.Event) bool { return e.Type == t })
}
