package registry

import (
	"strings"
	"sync"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindOf maps a MIME type to a media kind.
func KindOf(contentType string) (Kind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, true
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, true
	}
	return "", false
}

// Media is a previewable handle on the original upload. The bytes are never
// modified; Release drops them so the memory can be reclaimed.
type Media struct {
	mu       sync.RWMutex
	data     []byte
	released bool
}

func newMedia(data []byte) *Media {
	return &Media{data: data}
}

// Bytes returns the original upload. Callers must not modify the slice.
func (m *Media) Bytes() ([]byte, error) {
	if m == nil {
		return nil, ErrMediaReleased
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.released {
		return nil, ErrMediaReleased
	}
	return m.data, nil
}

func (m *Media) Released() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}

func (m *Media) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.released = true
}
