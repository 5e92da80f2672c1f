package render

import (
	"fmt"
	"image"
	"math"
	"sync"

	"editify-backend/internal/edits"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// textReferenceHeight is the canvas height at which a layer's size is drawn
// one-to-one; other canvases scale proportionally.
const textReferenceHeight = 720.0

// maxCachedFaces bounds the face cache; export sizes vary with image height.
const maxCachedFaces = 64

var fontSources = map[string][]byte{
	"sans":        goregular.TTF,
	"serif":       gomedium.TTF,
	"mono":        gomono.TTF,
	"display":     gobold.TTF,
	"handwritten": goitalic.TTF,
}

type faceKey struct {
	family string
	size   float64
}

// FontBook parses each family once and caches sized faces.
type FontBook struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

func NewFontBook() *FontBook {
	return &FontBook{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

func (b *FontBook) cachedFaces() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.faces)
}

func (b *FontBook) Face(family string, size float64) (font.Face, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := faceKey{family: family, size: math.Round(size*4) / 4}
	if face, ok := b.faces[key]; ok {
		return face, nil
	}

	f, ok := b.fonts[family]
	if !ok {
		src, known := fontSources[family]
		if !known {
			return nil, fmt.Errorf("unknown font %q", family)
		}
		parsed, err := opentype.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %q: %w", family, err)
		}
		b.fonts[family] = parsed
		f = parsed
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %q: %w", family, err)
	}
	if len(b.faces) >= maxCachedFaces {
		for k := range b.faces {
			delete(b.faces, k)
			break
		}
	}
	b.faces[key] = face
	return face, nil
}

// drawText renders every layer centred on its percentage position.
// font.Face is not safe for concurrent use, so drawing holds the book lock.
func (b *FontBook) drawText(img *image.NRGBA, layers []edits.TextLayer) error {
	size := img.Bounds().Size()
	scale := float64(size.Y) / textReferenceHeight
	for _, layer := range layers {
		col, err := ParseHexColor(layer.Color)
		if err != nil {
			return err
		}
		face, err := b.Face(layer.Font, max(layer.Size*scale, 1))
		if err != nil {
			return err
		}

		b.mu.Lock()
		d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
		width := d.MeasureString(layer.Content)
		m := face.Metrics()
		cx := fixed.I(int(math.Round(layer.Position.X / 100 * float64(size.X))))
		cy := fixed.I(int(math.Round(layer.Position.Y / 100 * float64(size.Y))))
		d.Dot = fixed.Point26_6{
			X: cx - width/2,
			Y: cy + (m.Ascent-m.Descent)/2,
		}
		d.DrawString(layer.Content)
		b.mu.Unlock()
	}
	return nil
}
