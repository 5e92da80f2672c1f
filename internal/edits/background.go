package edits

import (
	"fmt"

	"github.com/google/uuid"
)

type BackgroundMode string

const (
	BackgroundRemove  BackgroundMode = "remove"
	BackgroundBlur    BackgroundMode = "blur"
	BackgroundReplace BackgroundMode = "replace"
)

// BackgroundPreset is a fill used in replace mode. Solid presets have a
// single colour; gradients run top-left to bottom-right.
type BackgroundPreset struct {
	ID     string   `json:"id"`
	Colors []string `json:"colors"`
}

var BackgroundPresets = []BackgroundPreset{
	{ID: "gradient1", Colors: []string{"#6366f1", "#ec4899"}},
	{ID: "gradient2", Colors: []string{"#8b5cf6", "#3b82f6"}},
	{ID: "solid1", Colors: []string{"#3b82f6"}},
	{ID: "solid2", Colors: []string{"#10b981"}},
	{ID: "solid3", Colors: []string{"#ef4444"}},
	{ID: "solid4", Colors: []string{"#f59e0b"}},
}

func LookupBackgroundPreset(id string) (BackgroundPreset, bool) {
	for _, p := range BackgroundPresets {
		if p.ID == id {
			return p, true
		}
	}
	return BackgroundPreset{}, false
}

// SetBackgroundMode selects exactly one background mode, keeping any chosen fill.
func SetBackgroundMode(mode BackgroundMode) (PatchFunc, error) {
	switch mode {
	case BackgroundRemove, BackgroundBlur, BackgroundReplace:
	default:
		return nil, fmt.Errorf("%w: unknown background mode %q", ErrInvalidPayload, mode)
	}
	return func(s EditState) EditState {
		var b Background
		if s.Background != nil {
			b = *s.Background
		}
		b.Mode = mode
		s.Background = &b
		return s
	}, nil
}

// SetBackgroundPreset only takes effect while the mode is replace.
func SetBackgroundPreset(id string) (PatchFunc, error) {
	if _, ok := LookupBackgroundPreset(id); !ok {
		return nil, fmt.Errorf("%w: unknown background preset %q", ErrInvalidPayload, id)
	}
	return func(s EditState) EditState {
		if s.Background == nil || s.Background.Mode != BackgroundReplace {
			return s
		}
		b := *s.Background
		b.Preset = id
		b.CustomAssetID = ""
		s.Background = &b
		return s
	}, nil
}

// SetCustomBackground uses another image asset as the replacement fill.
func SetCustomBackground(assetID uuid.UUID) (PatchFunc, error) {
	if assetID == uuid.Nil {
		return nil, fmt.Errorf("%w: custom background needs an asset id", ErrInvalidPayload)
	}
	return func(s EditState) EditState {
		if s.Background == nil || s.Background.Mode != BackgroundReplace {
			return s
		}
		b := *s.Background
		b.Preset = ""
		b.CustomAssetID = assetID.String()
		s.Background = &b
		return s
	}, nil
}
