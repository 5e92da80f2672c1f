package edits

import "fmt"

type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// AspectRatioOption is one entry of the crop panel's ratio picker.
type AspectRatioOption struct {
	ID    string      `json:"id"`
	Ratio AspectRatio `json:"ratio"`
}

var AspectRatios = []AspectRatioOption{
	{ID: "free", Ratio: Free},
	{ID: "1:1", Ratio: 1},
	{ID: "4:3", Ratio: 4.0 / 3.0},
	{ID: "16:9", Ratio: 16.0 / 9.0},
	{ID: "9:16", Ratio: 9.0 / 16.0},
	{ID: "3:4", Ratio: 3.0 / 4.0},
	{ID: "3:2", Ratio: 3.0 / 2.0},
	{ID: "2:3", Ratio: 2.0 / 3.0},
}

func cropOf(s EditState) Crop {
	if s.Crop == nil {
		return Crop{}
	}
	return *s.Crop
}

func SetAspectRatio(ratio AspectRatio) (PatchFunc, error) {
	if ratio < 0 {
		return nil, fmt.Errorf("%w: aspect ratio must be positive", ErrInvalidPayload)
	}
	return func(s EditState) EditState {
		c := cropOf(s)
		c.AspectRatio = ratio
		s.Crop = &c
		return s
	}, nil
}

// Rotate accumulates a clockwise rotation, normalised into [0, 360).
func Rotate(delta int) (PatchFunc, error) {
	if delta%90 != 0 {
		return nil, fmt.Errorf("%w: rotation must be a multiple of 90, got %d", ErrInvalidPayload, delta)
	}
	return func(s EditState) EditState {
		c := cropOf(s)
		c.Rotation = NormalizeRotation(c.Rotation + delta)
		s.Crop = &c
		return s
	}, nil
}

func NormalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// FlipAxis toggles one axis. Toggles on different axes commute.
func FlipAxis(axis Axis) (PatchFunc, error) {
	if axis != AxisHorizontal && axis != AxisVertical {
		return nil, fmt.Errorf("%w: unknown flip axis %q", ErrInvalidPayload, axis)
	}
	return func(s EditState) EditState {
		c := cropOf(s)
		if axis == AxisHorizontal {
			c.Flip.Horizontal = !c.Flip.Horizontal
		} else {
			c.Flip.Vertical = !c.Flip.Vertical
		}
		s.Crop = &c
		return s
	}, nil
}

func ResetCrop() PatchFunc {
	return func(s EditState) EditState {
		s.Crop = nil
		return s
	}
}
