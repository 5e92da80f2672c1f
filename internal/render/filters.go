package render

import (
	"image"
	"image/color"

	"editify-backend/internal/edits"

	"github.com/disintegration/imaging"
)

// Luminance weights of the CSS saturate() matrix.
const (
	lumR = 0.213
	lumG = 0.715
	lumB = 0.072
)

// colorTransfer composes brightness, contrast and saturation into a single
// per-pixel function, in that order. It returns nil for the identity.
func colorTransfer(f edits.Filters) func(color.NRGBA) color.NRGBA {
	if f.Brightness == 0 && f.Contrast == 0 && f.Saturation == 0 {
		return nil
	}
	b := 1 + f.Brightness/100
	k := 1 + f.Contrast/100
	s := 1 + f.Saturation/100

	return func(c color.NRGBA) color.NRGBA {
		r := float64(c.R) / 255
		g := float64(c.G) / 255
		bl := float64(c.B) / 255

		r, g, bl = clamp01(r*b), clamp01(g*b), clamp01(bl*b)
		r = clamp01((r-0.5)*k + 0.5)
		g = clamp01((g-0.5)*k + 0.5)
		bl = clamp01((bl-0.5)*k + 0.5)

		nr := (lumR+(1-lumR)*s)*r + (lumG-lumG*s)*g + (lumB-lumB*s)*bl
		ng := (lumR-lumR*s)*r + (lumG+(1-lumG)*s)*g + (lumB-lumB*s)*bl
		nb := (lumR-lumR*s)*r + (lumG-lumG*s)*g + (lumB+(1-lumB)*s)*bl

		return color.NRGBA{R: to8(nr), G: to8(ng), B: to8(nb), A: c.A}
	}
}

// sharpenSigma maps the 0..100 slider onto an unsharp-mask sigma.
func sharpenSigma(v float64) float64 {
	return v / 20
}

// filterPass applies every filter to img in one pass chain and returns a new
// image; img itself is left untouched.
func filterPass(img image.Image, f edits.Filters) *image.NRGBA {
	out := imaging.Clone(img)
	if fn := colorTransfer(f); fn != nil {
		out = imaging.AdjustFunc(out, fn)
	}
	if f.Sharpness > 0 {
		out = imaging.Sharpen(out, sharpenSigma(f.Sharpness))
	}
	if f.Blur > 0 {
		out = imaging.Blur(out, f.Blur)
	}
	return out
}
