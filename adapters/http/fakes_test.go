package http

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/domain/user"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/apperror"
)

type memoryVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*video.Video
}

func newMemoryVideoRepo() *memoryVideoRepo {
	return &memoryVideoRepo{videos: make(map[string]*video.Video)}
}

func (r *memoryVideoRepo) Create(_ context.Context, v *video.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[v.PublicID]; ok {
		return apperror.NewConflict("video", "public_id", v.PublicID)
	}
	cp := *v
	r.videos[v.PublicID] = &cp
	return nil
}

func (r *memoryVideoRepo) FindByPublicID(_ context.Context, publicID string) (*video.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[publicID]
	if !ok {
		return nil, apperror.NewNotFound("video", publicID)
	}
	cp := *v
	return &cp, nil
}

func (r *memoryVideoRepo) DeleteByPublicID(_ context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[publicID]; !ok {
		return apperror.NewNotFound("video", publicID)
	}
	delete(r.videos, publicID)
	return nil
}

func (r *memoryVideoRepo) List(_ context.Context, filter video.ListFilter) ([]*video.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*video.Video, 0, len(r.videos))
	for _, v := range r.videos {
		if filter.OwnerID != uuid.Nil && v.OwnerID != filter.OwnerID {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return []*video.Video{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryVideoRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos)
}

// memoryProvider stores uploads in memory and halves their size.
type memoryProvider struct {
	mu      sync.Mutex
	seq     int
	objects map[string][]byte
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{objects: make(map[string][]byte)}
}

func (p *memoryProvider) Upload(_ context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := fmt.Sprintf("%s/clip%d", opts.Folder, p.seq)
	p.objects[id] = data
	return &service.UploadResult{
		PublicID:  id,
		Bytes:     int64(len(data) / 2),
		Duration:  75,
		SecureURL: "https://cdn.example.com/" + id + ".mp4",
	}, nil
}

func (p *memoryProvider) Destroy(_ context.Context, publicID string, _ string) (service.DestroyResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.objects[publicID]; !ok {
		return service.DestroyNotFound, nil
	}
	delete(p.objects, publicID)
	return service.DestroyOK, nil
}

func (p *memoryProvider) Renditions(publicID string) (service.Renditions, error) {
	base := "https://cdn.example.com/video/upload/"
	return service.Renditions{
		Thumbnail: base + "thumb/" + publicID + ".jpg",
		Preview:   base + "preview/" + publicID + ".mp4",
		Video:     base + "full/" + publicID + ".mp4",
	}, nil
}

func (p *memoryProvider) SignUpload(opts service.UploadOptions) (*service.SignedUpload, error) {
	return &service.SignedUpload{
		UploadURL:      "https://upload.example.com/" + opts.ResourceType + "/upload",
		CloudName:      "demo",
		APIKey:         "key",
		Timestamp:      time.Now().Unix(),
		Signature:      "sig",
		Folder:         opts.Folder,
		Transformation: opts.Transformation,
		ResourceType:   opts.ResourceType,
		ExpiresAt:      time.Now().Add(time.Hour),
	}, nil
}

func (p *memoryProvider) Inspect(_ context.Context, publicID string, _ string) (*service.UploadResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.objects[publicID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrRemoteNotFound, publicID)
	}
	return &service.UploadResult{
		PublicID:  publicID,
		Bytes:     int64(len(data) / 2),
		Duration:  75,
		SecureURL: "https://cdn.example.com/" + publicID + ".mp4",
	}, nil
}

// putDirect stands in for a browser uploading straight to the provider.
func (p *memoryProvider) putDirect(publicID string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[publicID] = data
}

func (p *memoryProvider) has(publicID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.objects[publicID]
	return ok
}

type memoryUserRepo struct {
	users map[string]*user.User
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (r *memoryUserRepo) Upsert(_ context.Context, u *user.User) error {
	r.users[u.Email] = u
	return nil
}
