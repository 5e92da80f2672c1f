package render

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"editify-backend/internal/edits"

	"github.com/disintegration/imaging"
)

type effectFunc func(img *image.NRGBA, t float64) *image.NRGBA

var effectFuncs = map[string]effectFunc{
	"motionBlur":  motionBlur,
	"cinemagraph": func(img *image.NRGBA, _ float64) *image.NRGBA { return img },
	"tiltShift":   tiltShift,
	"glitch":      glitch,
	"neon":        neon,
	"duotone":     duotone,
	"vignette":    vignette,
	"noise":       filmGrain,
}

// applyEffects layers the effect stack in order. Intensity is 0..100.
func applyEffects(img *image.NRGBA, effects []edits.Effect) *image.NRGBA {
	for _, e := range effects {
		fn, ok := effectFuncs[e.Type]
		if !ok || e.Intensity <= 0 {
			continue
		}
		img = fn(img, clamp01(e.Intensity/100))
	}
	return img
}

func blend(a, b *image.NRGBA, weight func(x, y int) float64) *image.NRGBA {
	bounds := a.Bounds()
	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			w := weight(x, y)
			ca, cb := a.NRGBAAt(x, y), b.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: lerp8(ca.R, cb.R, w),
				G: lerp8(ca.G, cb.G, w),
				B: lerp8(ca.B, cb.B, w),
				A: lerp8(ca.A, cb.A, w),
			})
		}
	}
	return out
}

func vignette(img *image.NRGBA, t float64) *image.NRGBA {
	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	maxD := math.Hypot(cx, cy)
	out := imaging.Clone(img)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxD
			f := 1 - 0.8*t*d*d
			c := out.NRGBAAt(x, y)
			c.R, c.G, c.B = uint8(float64(c.R)*f), uint8(float64(c.G)*f), uint8(float64(c.B)*f)
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// filmGrain uses a fixed seed so repeated renders of one state match.
func filmGrain(img *image.NRGBA, t float64) *image.NRGBA {
	b := img.Bounds()
	rng := rand.New(rand.NewPCG(0x5eed, uint64(b.Dx())))
	amp := 48 * t
	out := imaging.Clone(img)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := out.NRGBAAt(x, y)
			n := (rng.Float64()*2 - 1) * amp
			out.SetNRGBA(x, y, color.NRGBA{
				R: to8((float64(c.R) + n) / 255),
				G: to8((float64(c.G) + n) / 255),
				B: to8((float64(c.B) + n) / 255),
				A: c.A,
			})
		}
	}
	return out
}

var (
	duotoneShadow    = color.NRGBA{R: 0x1e, G: 0x3a, B: 0x8a, A: 0xff}
	duotoneHighlight = color.NRGBA{R: 0xf4, G: 0x72, B: 0xb6, A: 0xff}
)

func duotone(img *image.NRGBA, t float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := (lumR*float64(c.R) + lumG*float64(c.G) + lumB*float64(c.B)) / 255
		return color.NRGBA{
			R: lerp8(c.R, lerp8(duotoneShadow.R, duotoneHighlight.R, l), t),
			G: lerp8(c.G, lerp8(duotoneShadow.G, duotoneHighlight.G, l), t),
			B: lerp8(c.B, lerp8(duotoneShadow.B, duotoneHighlight.B, l), t),
			A: c.A,
		}
	})
}

// glitch splits the red and blue channels horizontally.
func glitch(img *image.NRGBA, t float64) *image.NRGBA {
	b := img.Bounds()
	shift := int(math.Ceil(t * float64(b.Dx()) * 0.02))
	out := imaging.Clone(img)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := out.NRGBAAt(x, y)
			c.R = img.NRGBAAt(min(x+shift, b.Dx()-1), y).R
			c.B = img.NRGBAAt(max(x-shift, 0), y).B
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func neon(img *image.NRGBA, t float64) *image.NRGBA {
	vivid := imaging.AdjustContrast(imaging.AdjustSaturation(img, 80*t), 25*t)
	glow := imaging.Blur(vivid, 2+6*t)
	return blend(vivid, glow, func(int, int) float64 { return 0.35 * t })
}

func motionBlur(img *image.NRGBA, t float64) *image.NRGBA {
	radius := int(math.Round(t * 20))
	if radius < 1 {
		return img
	}
	b := img.Bounds()
	w := b.Dx()
	out := image.NewNRGBA(image.Rect(0, 0, w, b.Dy()))
	sums := make([][4]int, w+1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			sums[x+1] = [4]int{
				sums[x][0] + int(c.R), sums[x][1] + int(c.G),
				sums[x][2] + int(c.B), sums[x][3] + int(c.A),
			}
		}
		for x := 0; x < w; x++ {
			lo, hi := max(x-radius, 0), min(x+radius+1, w)
			n := hi - lo
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8((sums[hi][0] - sums[lo][0]) / n),
				G: uint8((sums[hi][1] - sums[lo][1]) / n),
				B: uint8((sums[hi][2] - sums[lo][2]) / n),
				A: uint8((sums[hi][3] - sums[lo][3]) / n),
			})
		}
	}
	return out
}

// tiltShift keeps a horizontal band in focus and blurs towards the edges.
func tiltShift(img *image.NRGBA, t float64) *image.NRGBA {
	blurred := imaging.Blur(img, 1+8*t)
	h := float64(img.Bounds().Dy())
	return blend(img, blurred, func(_, y int) float64 {
		d := math.Abs(float64(y)-h/2) / (h / 2)
		return smoothstep(0.25, 0.75, d)
	})
}
