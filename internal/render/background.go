package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"editify-backend/internal/edits"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
)

// ErrMissingBackground is returned when replace mode references a custom
// image that could not be loaded.
var ErrMissingBackground = errors.New("custom background not available")

const (
	keyNear       = 48.0
	keyFar        = 110.0
	backdropSigma = 12.0
)

// backgroundKey picks the dominant colour along the image border; the subject
// is assumed to sit away from the edges. Border pixels are packed into a
// near-square sample so the clustering never works on a degenerate strip.
func backgroundKey(img *image.NRGBA) color.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	band := max(1, min(w, h)/20)

	border := make([]color.NRGBA, 0, 2*(w+h)*band)
	for d := 0; d < band; d++ {
		for x := 0; x < w; x++ {
			border = append(border, img.NRGBAAt(b.Min.X+x, b.Min.Y+d), img.NRGBAAt(b.Min.X+x, b.Max.Y-1-d))
		}
		for y := 0; y < h; y++ {
			border = append(border, img.NRGBAAt(b.Min.X+d, b.Min.Y+y), img.NRGBAAt(b.Max.X-1-d, b.Min.Y+y))
		}
	}
	if len(border) == 0 {
		return color.RGBA{}
	}

	side := int(math.Ceil(math.Sqrt(float64(len(border)))))
	rows := (len(border) + side - 1) / side
	sample := image.NewNRGBA(image.Rect(0, 0, side, rows))
	for i := 0; i < side*rows; i++ {
		sample.SetNRGBA(i%side, i/side, border[i%len(border)])
	}

	colors := dominantcolor.FindN(sample, 0)
	if len(colors) == 0 {
		return color.RGBA{}
	}
	return colors[0]
}

// subjectMask returns, per pixel, how much of the subject is kept (0..1).
func subjectMask(img *image.NRGBA, key color.RGBA) []float64 {
	b := img.Bounds()
	mask := make([]float64, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			dr := float64(c.R) - float64(key.R)
			dg := float64(c.G) - float64(key.G)
			db := float64(c.B) - float64(key.B)
			d := math.Sqrt(dr*dr + dg*dg + db*db)
			mask[y*b.Dx()+x] = smoothstep(keyNear, keyFar, d)
		}
	}
	return mask
}

func smoothstep(lo, hi, v float64) float64 {
	t := clamp01((v - lo) / (hi - lo))
	return t * t * (3 - 2*t)
}

// presetFill paints a solid or diagonal gradient backdrop.
func presetFill(size image.Point, preset edits.BackgroundPreset) (*image.NRGBA, error) {
	stops := make([]color.NRGBA, 0, len(preset.Colors))
	for _, hex := range preset.Colors {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		stops = append(stops, c)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("background preset %q has no colours", preset.ID)
	}
	if len(stops) == 1 {
		return imaging.New(size.X, size.Y, stops[0]), nil
	}

	from, to := stops[0], stops[len(stops)-1]
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	span := float64(size.X + size.Y - 2)
	if span <= 0 {
		span = 1
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			t := float64(x+y) / span
			out.SetNRGBA(x, y, color.NRGBA{
				R: lerp8(from.R, to.R, t),
				G: lerp8(from.G, to.G, t),
				B: lerp8(from.B, to.B, t),
				A: 0xff,
			})
		}
	}
	return out, nil
}

// backdrop builds what shows through where the subject mask is zero. A nil
// backdrop with a nil error means transparency.
func backdrop(img *image.NRGBA, bg *edits.Background, custom image.Image) (*image.NRGBA, bool, error) {
	size := img.Bounds().Size()
	switch bg.Mode {
	case edits.BackgroundRemove:
		return nil, true, nil
	case edits.BackgroundBlur:
		return imaging.Blur(img, backdropSigma), true, nil
	case edits.BackgroundReplace:
		if bg.CustomAssetID != "" {
			if custom == nil {
				return nil, false, fmt.Errorf("%w: %s", ErrMissingBackground, bg.CustomAssetID)
			}
			return imaging.Fill(custom, size.X, size.Y, imaging.Center, imaging.Lanczos), true, nil
		}
		if bg.Preset == "" {
			return nil, false, nil
		}
		preset, ok := edits.LookupBackgroundPreset(bg.Preset)
		if !ok {
			return nil, false, fmt.Errorf("unknown background preset %q", bg.Preset)
		}
		fill, err := presetFill(size, preset)
		return fill, true, err
	}
	return nil, false, fmt.Errorf("unknown background mode %q", bg.Mode)
}

// substituteBackground replaces everything outside the subject. It runs
// before the filter pass so filters grade subject and backdrop alike.
func substituteBackground(img *image.NRGBA, bg *edits.Background, custom image.Image) (*image.NRGBA, error) {
	if bg == nil {
		return img, nil
	}
	fill, apply, err := backdrop(img, bg, custom)
	if err != nil {
		return nil, err
	}
	if !apply {
		return img, nil
	}

	mask := subjectMask(img, backgroundKey(img))
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			w := mask[y*b.Dx()+x]
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			if fill == nil {
				c.A = uint8(float64(c.A)*w + 0.5)
				out.SetNRGBA(x, y, c)
				continue
			}
			f := fill.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: lerp8(f.R, c.R, w),
				G: lerp8(f.G, c.G, w),
				B: lerp8(f.B, c.B, w),
				A: lerp8(f.A, c.A, w),
			})
		}
	}
	return out, nil
}
