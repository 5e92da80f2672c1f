package supabase

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
	retry   Retry
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("storage client needs a supabase url")
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		retry:   DefaultRetry,
	}, nil
}

// BlobPath is the content address of data: blobs/<first two hex>/<sha256>.
func BlobPath(data []byte) (string, string) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	return digest, fmt.Sprintf("blobs/%s/%s", digest[:2], digest)
}

// UploadBlob stores data under its content address. Identical uploads map to
// the same object, so re-uploading is harmless.
func (s *StorageClient) UploadBlob(data []byte, contentType string) (string, string, error) {
	digest, storagePath := BlobPath(data)

	upsert := true
	err := s.retry.Do(func() error {
		_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		return err
	}, 3)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return digest, storagePath, nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteBlob(storagePath string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{storagePath}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *StorageClient) DownloadBlob(storagePath string) ([]byte, error) {
	var data []byte
	err := s.retry.Do(func() error {
		var err error
		data, err = s.client.DownloadFile(s.bucket, storagePath)
		return err
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return data, nil
}
