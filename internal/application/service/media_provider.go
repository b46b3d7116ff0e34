package service

import (
	"context"
	"errors"
	"io"
	"time"
)

const ResourceTypeVideo = "video"

// ErrRemoteNotFound is returned by Inspect when the provider has no such object.
var ErrRemoteNotFound = errors.New("remote object not found")

type UploadOptions struct {
	ResourceType   string
	Folder         string
	UploadPreset   string
	Transformation string
}

// UploadResult is the validated subset of a provider upload response.
type UploadResult struct {
	PublicID  string
	Bytes     int64
	Duration  float64
	SecureURL string
}

type DestroyResult string

const (
	DestroyOK       DestroyResult = "ok"
	DestroyNotFound DestroyResult = "not found"
)

// Gone reports whether the remote object no longer exists.
func (r DestroyResult) Gone() bool {
	return r == DestroyOK || r == DestroyNotFound
}

// Renditions are derived delivery URLs for a stored video.
type Renditions struct {
	Thumbnail string
	Preview   string
	Video     string
}

// SignedUpload lets a browser upload straight to the provider with the
// server's folder, preset and transformation.
type SignedUpload struct {
	UploadURL      string
	CloudName      string
	APIKey         string
	Timestamp      int64
	Signature      string
	Folder         string
	UploadPreset   string
	Transformation string
	ResourceType   string
	ExpiresAt      time.Time
}

// MediaProvider stores, transforms and deletes video files. Renditions and
// SignUpload are local computations and never touch the network.
type MediaProvider interface {
	Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string, resourceType string) (DestroyResult, error)
	Renditions(publicID string) (Renditions, error)
	SignUpload(opts UploadOptions) (*SignedUpload, error)
	Inspect(ctx context.Context, publicID string, resourceType string) (*UploadResult, error)
}
