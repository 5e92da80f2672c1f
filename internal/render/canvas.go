package render

import (
	"image"
	"math"
)

const DefaultPadding = 32

// DefaultMediaSize stands in for the natural size until the source is decoded.
var DefaultMediaSize = image.Pt(1920, 1080)

// Viewport is the container the preview canvas has to fit in.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// FitDimensions scales media into the container minus padding on every side,
// preserving the aspect ratio.
func FitDimensions(container Viewport, media image.Point, padding int) image.Point {
	if media.X <= 0 || media.Y <= 0 {
		media = DefaultMediaSize
	}
	availW := float64(container.Width - 2*padding)
	availH := float64(container.Height - 2*padding)
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}
	scale := math.Min(availW/float64(media.X), availH/float64(media.Y))
	w := int(math.Floor(float64(media.X) * scale))
	h := int(math.Floor(float64(media.Y) * scale))
	return image.Pt(max(w, 1), max(h, 1))
}
