package video

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventUploaded EventType = "video.uploaded"
	EventDeleted  EventType = "video.deleted"
	// A remote object exists with no record pointing at it.
	EventOrphaned EventType = "video.orphaned"
	// A record points at a remote object that was already destroyed.
	EventDangling EventType = "video.dangling"
)

type Event struct {
	Type       EventType `json:"event_type"`
	PublicID   string    `json:"public_id"`
	VideoID    uuid.UUID `json:"video_id,omitempty"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, v *Video) Event {
	return Event{
		Type:       t,
		PublicID:   v.PublicID,
		VideoID:    v.ID,
		OwnerID:    v.OwnerID,
		OccurredAt: time.Now().UTC(),
	}
}
