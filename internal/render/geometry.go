package render

import (
	"image"
	"math"

	"editify-backend/internal/edits"

	"github.com/disintegration/imaging"
)

// applyGeometry rotates clockwise, flips, then centre-crops to the aspect
// ratio so the output frame has the requested shape.
func applyGeometry(src image.Image, crop *edits.Crop) *image.NRGBA {
	if crop == nil {
		return imaging.Clone(src)
	}

	var img *image.NRGBA
	switch crop.Rotation {
	case 90:
		img = imaging.Rotate270(src)
	case 180:
		img = imaging.Rotate180(src)
	case 270:
		img = imaging.Rotate90(src)
	default:
		img = imaging.Clone(src)
	}
	if crop.Flip.Horizontal {
		img = imaging.FlipH(img)
	}
	if crop.Flip.Vertical {
		img = imaging.FlipV(img)
	}

	if crop.AspectRatio > 0 {
		w, h := cropSize(img.Bounds().Size(), float64(crop.AspectRatio))
		img = imaging.CropCenter(img, w, h)
	}
	return img
}

func cropSize(size image.Point, ratio float64) (int, int) {
	w, h := size.X, size.Y
	if float64(w)/float64(h) > ratio {
		w = int(math.Round(float64(h) * ratio))
	} else {
		h = int(math.Round(float64(w) / ratio))
	}
	return max(w, 1), max(h, 1)
}

// geometrySize is the natural size after crop geometry, without decoding pixels.
func geometrySize(size image.Point, crop *edits.Crop) image.Point {
	if crop == nil {
		return size
	}
	if crop.Rotation == 90 || crop.Rotation == 270 {
		size = image.Pt(size.Y, size.X)
	}
	if crop.AspectRatio > 0 {
		w, h := cropSize(size, float64(crop.AspectRatio))
		size = image.Pt(w, h)
	}
	return size
}
