package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GalleryAsset is a saved asset row in gallery_assets.
type GalleryAsset struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Kind        string
	ContentType string
	Size        int64
	BlobSHA256  string
	StoragePath string
	EditState   json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
