package edits

import "fmt"

type FilterKey string

const (
	Brightness FilterKey = "brightness"
	Contrast   FilterKey = "contrast"
	Saturation FilterKey = "saturation"
	Sharpness  FilterKey = "sharpness"
	Blur       FilterKey = "blur"
)

var FilterKeys = []FilterKey{Brightness, Contrast, Saturation, Sharpness, Blur}

// Preset lists the filter values a named look overwrites. Keys it does not
// mention are left untouched.
type Preset struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Values map[FilterKey]float64 `json:"values"`
}

const OriginalPreset = "original"

var Presets = []Preset{
	{ID: OriginalPreset, Name: "Original"},
	{ID: "vibrant", Name: "Vibrant", Values: map[FilterKey]float64{Brightness: 5, Contrast: 20, Saturation: 30}},
	{ID: "warm", Name: "Warm", Values: map[FilterKey]float64{Brightness: 10, Contrast: 5, Saturation: 15}},
	{ID: "cool", Name: "Cool", Values: map[FilterKey]float64{Brightness: 5, Contrast: 10, Saturation: -5}},
	{ID: "bw", Name: "B&W", Values: map[FilterKey]float64{Brightness: 5, Contrast: 20, Saturation: -100}},
	{ID: "vintage", Name: "Vintage", Values: map[FilterKey]float64{Brightness: -5, Contrast: 10, Saturation: -20}},
	{ID: "dramatic", Name: "Dramatic", Values: map[FilterKey]float64{Brightness: -5, Contrast: 35, Saturation: 10}},
	{ID: "fade", Name: "Fade", Values: map[FilterKey]float64{Brightness: 10, Contrast: -10, Saturation: -20}},
}

func LookupPreset(id string) (Preset, bool) {
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

func (f Filters) Get(key FilterKey) float64 {
	switch key {
	case Brightness:
		return f.Brightness
	case Contrast:
		return f.Contrast
	case Saturation:
		return f.Saturation
	case Sharpness:
		return f.Sharpness
	case Blur:
		return f.Blur
	}
	return 0
}

func (f *Filters) set(key FilterKey, value float64) error {
	switch key {
	case Brightness:
		f.Brightness = value
	case Contrast:
		f.Contrast = value
	case Saturation:
		f.Saturation = value
	case Sharpness:
		f.Sharpness = value
	case Blur:
		f.Blur = value
	default:
		return fmt.Errorf("unknown filter %q", key)
	}
	return nil
}

// SetFilter merges a single filter value; the last write wins.
func SetFilter(key FilterKey, value float64) (PatchFunc, error) {
	var probe Filters
	if err := probe.set(key, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return func(s EditState) EditState {
		_ = s.Filters.set(key, value)
		return s
	}, nil
}

// ApplyPreset overwrites the keys listed by the preset. The original preset
// zeroes every filter.
func ApplyPreset(id string) (PatchFunc, error) {
	preset, ok := LookupPreset(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidPayload, id)
	}
	if preset.ID == OriginalPreset {
		return ResetFilters(), nil
	}
	return func(s EditState) EditState {
		for key, value := range preset.Values {
			_ = s.Filters.set(key, value)
		}
		return s
	}, nil
}

func ResetFilters() PatchFunc {
	return func(s EditState) EditState {
		s.Filters = Filters{}
		return s
	}
}
