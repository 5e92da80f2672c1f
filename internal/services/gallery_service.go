package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"editify-backend/internal/edits"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"
	"editify-backend/internal/supabase"

	"github.com/google/uuid"
)

var ErrBlobCorrupted = errors.New("stored blob does not match its checksum")

type BlobStore interface {
	UploadBlob(data []byte, contentType string) (string, string, error)
	DownloadBlob(storagePath string) ([]byte, error)
	DeleteBlob(storagePath string) error
	GetPublicURL(storagePath string) string
}

type GalleryStore interface {
	UpsertGalleryAsset(ctx context.Context, asset models.GalleryAsset) (*models.GalleryAsset, error)
	GetGalleryAsset(ctx context.Context, id, userID uuid.UUID) (*models.GalleryAsset, error)
	ListGalleryAssets(ctx context.Context, userID uuid.UUID) ([]models.GalleryAsset, error)
	DeleteGalleryAsset(ctx context.Context, id, userID uuid.UUID) (*models.GalleryAsset, bool, error)
}

type EventPublisher interface {
	PublishAssetEvent(assetID uuid.UUID, event string, payload map[string]interface{}) error
}

// GalleryService persists registry assets, with their edit state, for a
// user and restores them into the registry later.
type GalleryService struct {
	reg       *registry.Registry
	blobs     BlobStore
	records   GalleryStore
	publisher EventPublisher
	logger    *slog.Logger
}

func NewGalleryService(reg *registry.Registry, blobs BlobStore, records GalleryStore, publisher EventPublisher, logger *slog.Logger) *GalleryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GalleryService{
		reg:       reg,
		blobs:     blobs,
		records:   records,
		publisher: publisher,
		logger:    logger,
	}
}

// Save uploads the asset's original bytes and records its current state.
func (s *GalleryService) Save(ctx context.Context, userID, assetID uuid.UUID) (*models.GalleryItem, error) {
	asset, err := s.reg.Get(assetID)
	if err != nil {
		return nil, err
	}
	if s.reg.IsProcessing(assetID) {
		return nil, registry.ErrAlreadyProcessing
	}
	data, err := asset.Media.Bytes()
	if err != nil {
		return nil, err
	}
	state, err := json.Marshal(asset.State)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edit state: %w", err)
	}

	digest, storagePath, err := s.blobs.UploadBlob(data, asset.ContentType)
	if err != nil {
		return nil, err
	}

	record, err := s.records.UpsertGalleryAsset(ctx, models.GalleryAsset{
		UserID:      userID,
		Name:        asset.Name,
		Kind:        string(asset.Kind),
		ContentType: asset.ContentType,
		Size:        int64(len(data)),
		BlobSHA256:  digest,
		StoragePath: storagePath,
		EditState:   state,
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAssetEvent(assetID, supabase.EventAssetSaved,
			supabase.AssetSavedPayload(assetID, record.ID, storagePath)); err != nil {
			s.logger.Warn("failed to publish asset_saved", "asset_id", assetID, "error", err)
		}
	}
	s.logger.Info("asset saved to gallery", "asset_id", assetID, "gallery_id", record.ID, "user_id", userID)

	item := s.item(*record)
	return &item, nil
}

func (s *GalleryService) List(ctx context.Context, userID uuid.UUID) ([]models.GalleryItem, error) {
	records, err := s.records.ListGalleryAssets(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]models.GalleryItem, 0, len(records))
	for _, r := range records {
		items = append(items, s.item(r))
	}
	return items, nil
}

// Open downloads a saved asset and registers it with its stored edit state.
func (s *GalleryService) Open(ctx context.Context, userID, galleryID uuid.UUID) (registry.Asset, error) {
	record, err := s.records.GetGalleryAsset(ctx, galleryID, userID)
	if err != nil {
		return registry.Asset{}, err
	}
	state, err := edits.DecodeState(record.EditState)
	if err != nil {
		return registry.Asset{}, err
	}

	data, err := s.blobs.DownloadBlob(record.StoragePath)
	if err != nil {
		return registry.Asset{}, err
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != record.BlobSHA256 {
		return registry.Asset{}, fmt.Errorf("%w: %s", ErrBlobCorrupted, record.StoragePath)
	}

	id, err := s.reg.RestoreAsset(registry.Upload{
		Name:        record.Name,
		ContentType: record.ContentType,
		Size:        int64(len(data)),
		Data:        data,
	}, state)
	if err != nil {
		return registry.Asset{}, err
	}
	return s.reg.Get(id)
}

// Delete removes the record, and the blob once no record references it.
func (s *GalleryService) Delete(ctx context.Context, userID, galleryID uuid.UUID) error {
	record, referenced, err := s.records.DeleteGalleryAsset(ctx, galleryID, userID)
	if err != nil {
		return err
	}
	if referenced {
		return nil
	}
	if err := s.blobs.DeleteBlob(record.StoragePath); err != nil {
		s.logger.Warn("failed to delete orphaned blob", "storage_path", record.StoragePath, "error", err)
	}
	return nil
}

func (s *GalleryService) item(r models.GalleryAsset) models.GalleryItem {
	edited := false
	if state, err := edits.DecodeState(r.EditState); err == nil {
		edited = !state.IsDefault()
	}
	return models.GalleryItem{
		ID:          r.ID.String(),
		Name:        r.Name,
		Kind:        r.Kind,
		ContentType: r.ContentType,
		Size:        r.Size,
		StorageURL:  s.blobs.GetPublicURL(r.StoragePath),
		Edited:      edited,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
