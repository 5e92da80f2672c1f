package supabase

import (
	"errors"
	"fmt"

	"editify-backend/internal/config"

	"github.com/supabase-community/supabase-go"
)

var ErrNotConfigured = errors.New("supabase is not configured")

// Client bundles the Supabase services the gallery depends on.
type Client struct {
	Supabase *supabase.Client
	Storage  *StorageClient
	Realtime *RealtimeClient
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.SupabaseURL == "" || cfg.SupabasePublishableKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	storageClient, err := NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Storage:  storageClient,
		Realtime: NewRealtimeClient(client),
	}, nil
}
