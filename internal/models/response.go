package models

import (
	"time"

	"editify-backend/internal/edits"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Assets     int    `json:"assets"`
	Processing bool   `json:"processing"`
	Tasks      int    `json:"tasks"`
	Gallery    bool   `json:"gallery"`
	FFmpeg     bool   `json:"ffmpeg"`
}

type AssetListResponse struct {
	Assets []AssetSummary `json:"assets"`
}

type AssetSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Edited      bool      `json:"edited"`
	Processing  bool      `json:"processing"`
	CreatedAt   time.Time `json:"created_at"`
}

type AssetResponse struct {
	AssetSummary
	State edits.EditState `json:"state"`
}

type EditResponse struct {
	AssetID      string          `json:"asset_id"`
	State        edits.EditState `json:"state"`
	HistoryDepth int             `json:"history_depth"`
}

type HistoryResponse struct {
	AssetID  string         `json:"asset_id"`
	Capacity int            `json:"capacity"`
	Entries  []HistoryEntry `json:"entries"`
}

type HistoryEntry struct {
	State     edits.EditState `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

type PresetsResponse struct {
	Filters             []edits.Preset            `json:"filters"`
	AspectRatios        []edits.AspectRatioOption `json:"aspect_ratios"`
	BackgroundPresets   []edits.BackgroundPreset  `json:"background_presets"`
	Effects             []edits.EffectInfo        `json:"effects"`
	Fonts               []string                  `json:"fonts"`
	Kinds               []string                  `json:"kinds"`
	Tabs                []string                  `json:"tabs"`
	MaxUploadBytes      int64                     `json:"max_upload_bytes"`
	DefaultTextSize     float64                   `json:"default_text_size"`
	DefaultEffectWeight float64                   `json:"default_effect_intensity"`
}

type GalleryListResponse struct {
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	ID          string    `json:"gallery_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageURL  string    `json:"storage_url"`
	Edited      bool      `json:"edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OpenGalleryResponse struct {
	GalleryID string        `json:"gallery_id"`
	Asset     AssetResponse `json:"asset"`
}
