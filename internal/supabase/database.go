package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"editify-backend/internal/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var ErrGalleryAssetNotFound = errors.New("gallery asset not found")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const galleryColumns = `id, user_id, name, kind, content_type, size, blob_sha256, storage_path, edit_state, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGalleryAsset(row rowScanner) (*models.GalleryAsset, error) {
	var a models.GalleryAsset
	var state []byte
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.ContentType, &a.Size,
		&a.BlobSHA256, &a.StoragePath, &state, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.EditState = state
	return &a, nil
}

// UpsertGalleryAsset saves the asset for the user. Saving the same blob again
// refreshes its name and edit state instead of creating a duplicate.
func (d *DatabaseClient) UpsertGalleryAsset(ctx context.Context, asset models.GalleryAsset) (*models.GalleryAsset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO gallery_assets (id, user_id, name, kind, content_type, size, blob_sha256, storage_path, edit_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, blob_sha256) DO UPDATE
		SET name = EXCLUDED.name, edit_state = EXCLUDED.edit_state, updated_at = NOW()
		RETURNING `+galleryColumns,
		asset.ID, asset.UserID, asset.Name, asset.Kind, asset.ContentType, asset.Size,
		asset.BlobSHA256, asset.StoragePath, []byte(asset.EditState))

	saved, err := scanGalleryAsset(row)
	if err != nil {
		return nil, fmt.Errorf("failed to save gallery asset: %w", err)
	}
	return saved, nil
}

func (d *DatabaseClient) GetGalleryAsset(ctx context.Context, id, userID uuid.UUID) (*models.GalleryAsset, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+galleryColumns+`
		FROM gallery_assets
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	asset, err := scanGalleryAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGalleryAssetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery asset: %w", err)
	}
	return asset, nil
}

func (d *DatabaseClient) ListGalleryAssets(ctx context.Context, userID uuid.UUID) ([]models.GalleryAsset, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+galleryColumns+`
		FROM gallery_assets
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery assets: %w", err)
	}
	defer rows.Close()

	var assets []models.GalleryAsset
	for rows.Next() {
		asset, err := scanGalleryAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list gallery assets: %w", err)
	}
	return assets, nil
}

// DeleteGalleryAsset removes the record and reports whether other records
// still reference the same blob.
func (d *DatabaseClient) DeleteGalleryAsset(ctx context.Context, id, userID uuid.UUID) (*models.GalleryAsset, bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		DELETE FROM gallery_assets
		WHERE id = $1 AND user_id = $2
		RETURNING `+galleryColumns, id, userID)
	asset, err := scanGalleryAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%w: %s", ErrGalleryAssetNotFound, id)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to delete gallery asset: %w", err)
	}

	var refs int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gallery_assets WHERE blob_sha256 = $1`, asset.BlobSHA256,
	).Scan(&refs); err != nil {
		return nil, false, fmt.Errorf("failed to count blob references: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return asset, refs > 0, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
