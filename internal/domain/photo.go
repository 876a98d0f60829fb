package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxPhotosPerUser = 5
	MaxPhotoBytes    = 5 * 1024 * 1024
)

type Photo struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	URL       string    `json:"url"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
