package edits

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// EditState is the full set of non-destructive edits applied to one asset.
// It is treated as a value: commits replace it wholesale.
type EditState struct {
	Filters    Filters     `json:"filters"`
	Crop       *Crop       `json:"crop" validate:"omitempty"`
	Background *Background `json:"background" validate:"omitempty"`
	Text       []TextLayer `json:"text" validate:"dive"`
	Effects    []Effect    `json:"effects" validate:"dive"`
}

type Filters struct {
	Brightness float64 `json:"brightness" validate:"gte=-100,lte=100"`
	Contrast   float64 `json:"contrast" validate:"gte=-100,lte=100"`
	Saturation float64 `json:"saturation" validate:"gte=-100,lte=100"`
	Sharpness  float64 `json:"sharpness" validate:"gte=0,lte=100"`
	Blur       float64 `json:"blur" validate:"gte=0,lte=10"`
}

type Crop struct {
	AspectRatio AspectRatio `json:"aspectRatio" validate:"gte=0"`
	Rotation    int         `json:"rotation" validate:"oneof=0 90 180 270"`
	Flip        Flip        `json:"flip"`
}

type Flip struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
}

type Background struct {
	Mode          BackgroundMode `json:"mode" validate:"oneof=remove blur replace"`
	Preset        string         `json:"preset,omitempty" validate:"omitempty,oneof=gradient1 gradient2 solid1 solid2 solid3 solid4"`
	CustomAssetID string         `json:"customAssetId,omitempty" validate:"omitempty,uuid"`
}

type TextLayer struct {
	ID       string   `json:"id" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Font     string   `json:"font" validate:"oneof=sans serif mono display handwritten"`
	Color    string   `json:"color" validate:"hexcolor"`
	Size     float64  `json:"size" validate:"gt=0,lte=512"`
	Position Position `json:"position"`
}

// Position is expressed in percent of the canvas, anchored at the text centre.
type Position struct {
	X float64 `json:"x" validate:"gte=0,lte=100"`
	Y float64 `json:"y" validate:"gte=0,lte=100"`
}

type Effect struct {
	Type      string  `json:"type" validate:"oneof=motionBlur cinemagraph tiltShift glitch neon duotone vignette noise"`
	Intensity float64 `json:"intensity" validate:"gte=0,lte=100"`
}

// AspectRatio is width divided by height. Zero means free-form.
type AspectRatio float64

const Free AspectRatio = 0

func (a AspectRatio) MarshalJSON() ([]byte, error) {
	if a == Free {
		return []byte(`"free"`), nil
	}
	return json.Marshal(float64(a))
}

func (a *AspectRatio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		ratio, err := ParseAspectRatio(s)
		if err != nil {
			return err
		}
		*a = ratio
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("aspect ratio must be \"free\", \"W:H\" or a number: %w", err)
	}
	*a = AspectRatio(f)
	return nil
}

// ParseAspectRatio accepts "free", "W:H" or a decimal ratio.
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "free" {
		return Free, nil
	}
	if w, h, ok := strings.Cut(s, ":"); ok {
		wf, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
		}
		hf, err := strconv.ParseFloat(h, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
		}
		if wf <= 0 || hf <= 0 {
			return 0, fmt.Errorf("invalid aspect ratio %q", s)
		}
		return AspectRatio(wf / hf), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid aspect ratio %q", s)
	}
	return AspectRatio(f), nil
}

// Default returns the state every new asset starts from.
func Default() EditState {
	return EditState{
		Text:    []TextLayer{},
		Effects: []Effect{},
	}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s EditState) Clone() EditState {
	out := s
	if s.Crop != nil {
		c := *s.Crop
		out.Crop = &c
	}
	if s.Background != nil {
		b := *s.Background
		out.Background = &b
	}
	out.Text = append(make([]TextLayer, 0, len(s.Text)), s.Text...)
	out.Effects = append(make([]Effect, 0, len(s.Effects)), s.Effects...)
	return out
}

// Equal reports whether two states describe the same edits.
func (s EditState) Equal(other EditState) bool {
	a, b := s.Clone(), other.Clone()
	return reflect.DeepEqual(a, b)
}

// IsDefault reports whether no edit has been applied.
func (s EditState) IsDefault() bool {
	return s.Equal(Default())
}
