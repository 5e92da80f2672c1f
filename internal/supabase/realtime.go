package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

const eventsTable = "asset_events"

// Event names published on an asset channel.
const (
	EventAssetSaved          = "asset_saved"
	EventProcessingStarted   = "processing_started"
	EventProcessingProgress  = "processing_progress"
	EventProcessingCompleted = "processing_completed"
	EventProcessingFailed    = "processing_failed"
	EventProcessingCancelled = "processing_cancelled"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

type eventRow struct {
	Channel string                 `json:"channel"`
	AssetID string                 `json:"asset_id,omitempty"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// PublishEvent inserts the event through PostgREST; Supabase Realtime fans
// the insert out to subscribers of the table.
func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	if r == nil || r.client == nil {
		return nil
	}
	row := eventRow{Channel: channel, Event: event, Payload: payload}
	if id, ok := payload["asset_id"].(string); ok {
		row.AssetID = id
	}
	if _, _, err := r.client.From(eventsTable).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event, err)
	}
	return nil
}

func (r *RealtimeClient) PublishAssetEvent(assetID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("asset:%s", assetID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func ProcessingStartedPayload(assetID, taskID uuid.UUID, job string) map[string]interface{} {
	return map[string]interface{}{
		"asset_id": assetID.String(),
		"task_id":  taskID.String(),
		"status":   "processing",
		"job":      job,
		"progress": 0,
	}
}

func ProcessingProgressPayload(assetID, taskID uuid.UUID, progress int) map[string]interface{} {
	return map[string]interface{}{
		"asset_id": assetID.String(),
		"task_id":  taskID.String(),
		"status":   "processing",
		"progress": progress,
	}
}

func ProcessingCompletedPayload(assetID, taskID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"asset_id": assetID.String(),
		"task_id":  taskID.String(),
		"status":   "completed",
		"progress": 100,
	}
}

func ProcessingFailedPayload(assetID, taskID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"asset_id": assetID.String(),
		"task_id":  taskID.String(),
		"status":   "failed",
		"error":    errorMsg,
	}
}

func ProcessingCancelledPayload(assetID, taskID uuid.UUID, progress int) map[string]interface{} {
	return map[string]interface{}{
		"asset_id": assetID.String(),
		"task_id":  taskID.String(),
		"status":   "cancelled",
		"progress": progress,
	}
}

func AssetSavedPayload(assetID, galleryID uuid.UUID, storagePath string) map[string]interface{} {
	return map[string]interface{}{
		"asset_id":     assetID.String(),
		"gallery_id":   galleryID.String(),
		"status":       "saved",
		"storage_path": storagePath,
	}
}
