package render_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"editify-backend/internal/edits"
	"editify-backend/internal/registry"
	"editify-backend/internal/render"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func renderNatural(t *testing.T, src image.Image, state edits.EditState) *render.Result {
	t.Helper()
	p := render.NewPipeline(nil, discardLogger())
	res, err := p.Render(context.Background(), render.Job{Source: src, State: state})
	require.NoError(t, err)
	return res
}

func TestFitDimensions(t *testing.T) {
	got := render.FitDimensions(render.Viewport{Width: 1000, Height: 800}, image.Pt(1920, 1080), 32)
	assert.Equal(t, image.Pt(936, 526), got)

	unknown := render.FitDimensions(render.Viewport{Width: 1000, Height: 800}, image.Point{}, 32)
	assert.Equal(t, got, unknown)

	upscaled := render.FitDimensions(render.Viewport{Width: 264, Height: 164}, image.Pt(100, 50), 32)
	assert.Equal(t, image.Pt(200, 100), upscaled)

	tiny := render.FitDimensions(render.Viewport{Width: 10, Height: 10}, image.Pt(100, 50), 32)
	assert.Equal(t, image.Pt(1, 1), tiny)
}

func TestRender_BrightnessTransfer(t *testing.T) {
	state := edits.Default()
	state.Filters.Brightness = 20

	res := renderNatural(t, uniform(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255}), state)
	assert.False(t, res.Degraded)
	assert.Equal(t, color.NRGBA{R: 120, G: 120, B: 120, A: 255}, res.Image.NRGBAAt(1, 1))
}

func TestRender_SaturationToGrey(t *testing.T) {
	state := edits.Default()
	state.Filters.Saturation = -100

	res := renderNatural(t, uniform(4, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), state)
	assert.Equal(t, color.NRGBA{R: 118, G: 118, B: 118, A: 255}, res.Image.NRGBAAt(2, 2))
}

func TestRender_DefaultStateIsIdentity(t *testing.T) {
	src := uniform(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	res := renderNatural(t, src, edits.Default())
	assert.Equal(t, src.Pix, res.Image.Pix)
}

func TestRender_DoesNotMutateState(t *testing.T) {
	state := edits.Default()
	state.Filters.Blur = 2
	state.Effects = append(state.Effects, edits.Effect{Type: "vignette", Intensity: 50})
	before := state.Clone()

	renderNatural(t, uniform(8, 8, color.NRGBA{R: 90, G: 90, B: 90, A: 255}), state)
	assert.Equal(t, before, state)
}

func TestRender_Geometry(t *testing.T) {
	src := uniform(40, 20, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	state := edits.Default()
	state.Crop = &edits.Crop{Rotation: 90}
	assert.Equal(t, image.Pt(20, 40), renderNatural(t, src, state).Image.Bounds().Size())

	state.Crop = &edits.Crop{AspectRatio: 1}
	assert.Equal(t, image.Pt(20, 20), renderNatural(t, src, state).Image.Bounds().Size())
}

func TestRender_RotationIsClockwise(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	red := color.NRGBA{R: 255, A: 255}
	src.SetNRGBA(0, 0, red)
	src.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	state := edits.Default()
	state.Crop = &edits.Crop{Rotation: 90}
	res := renderNatural(t, src, state)
	// The left pixel of a clockwise-rotated row ends up on top.
	assert.Equal(t, red, res.Image.NRGBAAt(0, 0))
}

func TestRender_FitsViewport(t *testing.T) {
	p := render.NewPipeline(nil, discardLogger())
	res, err := p.Render(context.Background(), render.Job{
		Source:   uniform(400, 200, color.NRGBA{A: 255}),
		State:    edits.Default(),
		Viewport: render.Viewport{Width: 264, Height: 264},
		Padding:  32,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), res.Image.Bounds().Size())
}

func TestRender_BackgroundRemove(t *testing.T) {
	green := color.NRGBA{R: 30, G: 160, B: 60, A: 255}
	red := color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	src := uniform(40, 40, green)
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			src.SetNRGBA(x, y, red)
		}
	}

	state := edits.Default()
	state.Background = &edits.Background{Mode: edits.BackgroundRemove}
	res := renderNatural(t, src, state)

	assert.False(t, res.Degraded)
	assert.Equal(t, uint8(0), res.Image.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), res.Image.NRGBAAt(20, 20).A)
}

func TestRender_BackgroundModesOnLargeImage(t *testing.T) {
	blue := color.NRGBA{R: 40, G: 90, B: 200, A: 255}
	red := color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	src := uniform(640, 480, blue)
	for y := 140; y < 340; y++ {
		for x := 220; x < 420; x++ {
			src.SetNRGBA(x, y, red)
		}
	}

	for _, bg := range []*edits.Background{
		{Mode: edits.BackgroundRemove},
		{Mode: edits.BackgroundBlur},
		{Mode: edits.BackgroundReplace, Preset: "gradient1"},
	} {
		t.Run(string(bg.Mode), func(t *testing.T) {
			state := edits.Default()
			state.Background = bg
			res := renderNatural(t, src, state)
			assert.False(t, res.Degraded)
			assert.Equal(t, red, res.Image.NRGBAAt(320, 240))
		})
	}

	state := edits.Default()
	state.Background = &edits.Background{Mode: edits.BackgroundRemove}
	res := renderNatural(t, src, state)
	assert.Equal(t, uint8(0), res.Image.NRGBAAt(5, 5).A)
}

func TestRender_ReplaceWithoutFillIsPassThrough(t *testing.T) {
	src := uniform(6, 6, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	state := edits.Default()
	state.Background = &edits.Background{Mode: edits.BackgroundReplace}

	res := renderNatural(t, src, state)
	assert.Equal(t, src.Pix, res.Image.Pix)
}

func TestRender_MissingCustomBackgroundDegrades(t *testing.T) {
	src := uniform(6, 6, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	state := edits.Default()
	state.Filters.Brightness = 50
	state.Background = &edits.Background{Mode: edits.BackgroundReplace, CustomAssetID: uuid.NewString()}

	res := renderNatural(t, src, state)
	assert.True(t, res.Degraded)
	assert.Equal(t, src.Pix, res.Image.Pix)
}

func TestRender_PlaceholderWithoutSource(t *testing.T) {
	p := render.NewPipeline(nil, discardLogger())
	res, err := p.Render(context.Background(), render.Job{
		State:    edits.Default(),
		Viewport: render.Viewport{Width: 1000, Height: 800},
		Padding:  32,
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, image.Pt(936, 526), res.Image.Bounds().Size())
}

func TestRender_TextAndEffects(t *testing.T) {
	state := edits.Default()
	state.Text = append(state.Text, edits.NewTextLayer("t1", "Hello"))
	for _, e := range edits.Effects {
		state.Effects = append(state.Effects, edits.Effect{Type: e.ID, Intensity: 60})
	}
	res := renderNatural(t, uniform(64, 48, color.NRGBA{R: 120, G: 80, B: 40, A: 255}), state)
	assert.False(t, res.Degraded)
	assert.Equal(t, image.Pt(64, 48), res.Image.Bounds().Size())
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := render.NewPipeline(nil, discardLogger())
	_, err := p.Render(ctx, render.Job{Source: uniform(4, 4, color.NRGBA{A: 255}), State: edits.Default()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "editify-photo.png", render.ExportFilename("editify", "photo.jpg"))
	assert.Equal(t, "editify-my.holiday.png", render.ExportFilename("editify", "my.holiday.jpeg"))
	assert.Equal(t, "shop-noext.png", render.ExportFilename("shop", "noext"))
}

func TestParseHexColor(t *testing.T) {
	c, err := render.ParseHexColor("#6366f1")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x63, G: 0x66, B: 0xf1, A: 0xff}, c)

	c, err = render.ParseHexColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)

	c, err = render.ParseHexColor("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 0x80}, c)

	c, err = render.ParseHexColor("#0f08")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 255, A: 0x88}, c)

	_, err = render.ParseHexColor("blue")
	assert.Error(t, err)
	_, err = render.ParseHexColor("#12345")
	assert.Error(t, err)
}

func TestRender_TranslucentTextColour(t *testing.T) {
	state := edits.Default()
	layer := edits.NewTextLayer("t1", "Hello")
	layer.Color = "#ff000080"
	state.Text = append(state.Text, layer)
	require.NoError(t, edits.Validate(state))

	res := renderNatural(t, uniform(200, 100, color.NRGBA{A: 255}), state)
	assert.False(t, res.Degraded)
}

func TestDecoder_RejectsOversizedDimensions(t *testing.T) {
	data := pngBytes(t, uniform(300, 200, color.NRGBA{A: 255}))
	_, err := render.NewDecoder(nil, 300*200-1).Decode(context.Background(), registry.KindImage, data)
	assert.ErrorIs(t, err, render.ErrImageTooLarge)

	img, err := render.NewDecoder(nil, 300*200).Decode(context.Background(), registry.KindImage, data)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(300, 200), img.Bounds().Size())
}

func newPreviewer(t *testing.T) (*registry.Registry, *render.Previewer) {
	t.Helper()
	reg := registry.New(registry.Config{})
	logger := discardLogger()
	decoder := render.NewDecoder(nil, 0)
	p := render.NewPreviewer(reg, render.NewPipeline(nil, logger), decoder, render.PreviewConfig{Padding: render.DefaultPadding}, logger)
	return reg, p
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreviewer_PreviewAndExport(t *testing.T) {
	reg, p := newPreviewer(t)
	data := pngBytes(t, uniform(300, 150, color.NRGBA{R: 100, G: 100, B: 100, A: 255}))
	id, err := reg.AddAsset(registry.Upload{Name: "beach.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)

	res, err := p.Preview(context.Background(), id, render.Viewport{Width: 264, Height: 264})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), res.Image.Bounds().Size())

	size, err := p.CanvasSize(context.Background(), id, render.Viewport{Width: 264, Height: 264})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), size)

	p.Resize(render.Viewport{Width: 364, Height: 364})
	res, err = p.Preview(context.Background(), id, render.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(300, 150), res.Image.Bounds().Size())

	brighter, _ := edits.SetFilter(edits.Brightness, 20)
	_, err = reg.CommitEdit(id, brighter)
	require.NoError(t, err)

	exp, err := p.Export(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "editify-beach.png", exp.Filename)
	decoded, err := png.Decode(bytes.NewReader(exp.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(300, 150), decoded.Bounds().Size())
	r, _, _, _ := decoded.At(10, 10).RGBA()
	assert.Equal(t, uint32(120), r>>8)
}

func TestPreviewer_ExportRules(t *testing.T) {
	reg, p := newPreviewer(t)

	video, err := reg.AddAsset(registry.Upload{Name: "clip.mp4", ContentType: "video/mp4", Data: []byte{0, 1}})
	require.NoError(t, err)
	_, err = p.Export(context.Background(), video)
	assert.ErrorIs(t, err, render.ErrVideoExportUnsupported)

	img, err := reg.AddAsset(registry.Upload{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, uniform(2, 2, color.NRGBA{A: 255}))})
	require.NoError(t, err)
	require.NoError(t, reg.BeginProcessing(img))
	_, err = p.Export(context.Background(), img)
	assert.ErrorIs(t, err, registry.ErrAlreadyProcessing)
	reg.EndProcessing(img)

	_, err = p.Export(context.Background(), uuid.New())
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)
}

func TestPreviewer_UndecodableFallsBack(t *testing.T) {
	reg, p := newPreviewer(t)
	id, err := reg.AddAsset(registry.Upload{Name: "broken.jpg", ContentType: "image/jpeg", Data: []byte("not a jpeg")})
	require.NoError(t, err)

	res, err := p.Preview(context.Background(), id, render.Viewport{Width: 1000, Height: 800})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, image.Pt(936, 526), res.Image.Bounds().Size())

	_, err = p.Export(context.Background(), id)
	assert.ErrorIs(t, err, render.ErrExportFailed)
}

func TestPreviewer_ForgetsRemovedAssets(t *testing.T) {
	reg, p := newPreviewer(t)
	id, err := reg.AddAsset(registry.Upload{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, uniform(4, 4, color.NRGBA{A: 255}))})
	require.NoError(t, err)
	_, err = p.MediaSize(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, reg.RemoveAsset(id))
	_, err = p.Preview(context.Background(), id, render.Viewport{})
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)
}
