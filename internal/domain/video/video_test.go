package video

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVideo_CompressionPercent(t *testing.T) {
	tests := []struct {
		name       string
		original   int64
		compressed int64
		want       int
	}{
		{"halved", 10_000_000, 5_000_000, 50},
		{"rounds to nearest", 3, 2, 33},
		{"rounds up", 1000, 994, 1},
		{"unchanged", 100, 100, 0},
		{"grew", 100, 150, -50},
		{"unknown original", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Video{OriginalSize: tt.original, CompressedSize: tt.compressed}
			assert.Equal(t, tt.want, v.CompressionPercent())
		})
	}
}

func TestVideo_DurationLabel(t *testing.T) {
	assert.Equal(t, "0:00", (&Video{}).DurationLabel())
	assert.Equal(t, "0:09", (&Video{Duration: 9.4}).DurationLabel())
	assert.Equal(t, "1:05", (&Video{Duration: 65}).DurationLabel())
	assert.Equal(t, "61:40", (&Video{Duration: 3700}).DurationLabel())
}

func TestVideo_DownloadFilename(t *testing.T) {
	assert.Equal(t, "My_Summer_Clip.mp4", (&Video{Title: "My Summer \t Clip"}).DownloadFilename())
	assert.Equal(t, "video.mp4", (&Video{Title: "   "}).DownloadFilename())
}

func TestVideo_IsOwnedBy(t *testing.T) {
	owner := uuid.New()
	v := &Video{OwnerID: owner}

	assert.True(t, v.IsOwnedBy(owner))
	assert.False(t, v.IsOwnedBy(uuid.New()))
	assert.False(t, (&Video{}).IsOwnedBy(uuid.Nil))
}
