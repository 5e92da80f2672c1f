package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"editify-backend/internal/edits"
	"editify-backend/internal/registry"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrVideoExportUnsupported = errors.New("video export is not supported")
	ErrExportFailed           = errors.New("export failed")
)

type PreviewConfig struct {
	DefaultViewport Viewport
	Padding         int
	ExportPrefix    string
}

type Export struct {
	Filename string
	Data     []byte
}

// Previewer renders registry assets, caching decoded sources per asset.
type Previewer struct {
	registry *registry.Registry
	pipeline *Pipeline
	decoder  *Decoder
	cfg      PreviewConfig
	logger   *slog.Logger

	mu       sync.Mutex
	viewport Viewport
	sources  map[uuid.UUID]image.Image
	group    singleflight.Group
}

func NewPreviewer(reg *registry.Registry, pipeline *Pipeline, decoder *Decoder, cfg PreviewConfig, logger *slog.Logger) *Previewer {
	if cfg.DefaultViewport.IsZero() {
		cfg.DefaultViewport = Viewport{Width: 1280, Height: 720}
	}
	if cfg.ExportPrefix == "" {
		cfg.ExportPrefix = "editify"
	}
	p := &Previewer{
		registry: reg,
		pipeline: pipeline,
		decoder:  decoder,
		cfg:      cfg,
		logger:   logger,
		viewport: cfg.DefaultViewport,
		sources:  make(map[uuid.UUID]image.Image),
	}
	reg.OnRelease(p.Forget)
	return p
}

// Forget drops the cached decode of a removed asset.
func (p *Previewer) Forget(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sources, id)
}

func (p *Previewer) cached(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sources[id]
	return ok
}

// source decodes an asset once; concurrent callers share the decode.
func (p *Previewer) source(ctx context.Context, asset registry.Asset) (image.Image, error) {
	p.mu.Lock()
	img, ok := p.sources[asset.ID]
	p.mu.Unlock()
	if ok {
		return img, nil
	}

	v, err, _ := p.group.Do(asset.ID.String(), func() (interface{}, error) {
		data, err := asset.Media.Bytes()
		if err != nil {
			return nil, err
		}
		img, err := p.decoder.Decode(ctx, asset.Kind, data)
		if err != nil {
			return nil, err
		}
		// Media is released before Forget runs, so a store made under the
		// lock while the media is live is always cleared by Forget.
		p.mu.Lock()
		if !asset.Media.Released() {
			p.sources[asset.ID] = img
		}
		p.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// MediaSize reports the natural dimensions, decoding the source if needed.
func (p *Previewer) MediaSize(ctx context.Context, id uuid.UUID) (image.Point, error) {
	asset, err := p.registry.Get(id)
	if err != nil {
		return image.Point{}, err
	}
	img, err := p.source(ctx, asset)
	if err != nil {
		return image.Point{}, err
	}
	return geometrySize(img.Bounds().Size(), asset.State.Crop), nil
}

func (p *Previewer) job(ctx context.Context, asset registry.Asset, vp Viewport) Job {
	job := Job{State: asset.State, Viewport: vp, Padding: p.cfg.Padding}

	src, err := p.source(ctx, asset)
	if err != nil {
		p.logger.Warn("failed to decode asset",
			slog.String("asset_id", asset.ID.String()),
			slog.String("kind", string(asset.Kind)),
			slog.String("err", err.Error()))
	} else {
		job.Source = src
	}

	if bg := asset.State.Background; bg != nil && bg.Mode == edits.BackgroundReplace && bg.CustomAssetID != "" {
		if img, err := p.customBackground(ctx, bg.CustomAssetID); err != nil {
			p.logger.Warn("failed to load custom background",
				slog.String("asset_id", asset.ID.String()),
				slog.String("background_id", bg.CustomAssetID),
				slog.String("err", err.Error()))
		} else {
			job.Background = img
		}
	}
	return job
}

func (p *Previewer) customBackground(ctx context.Context, ref string) (image.Image, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, err
	}
	asset, err := p.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return p.source(ctx, asset)
}

// Resize records the editor's current container size.
func (p *Previewer) Resize(vp Viewport) Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !vp.IsZero() {
		p.viewport = vp
	}
	return p.viewport
}

func (p *Previewer) currentViewport(vp Viewport) Viewport {
	if !vp.IsZero() {
		return vp
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

// CanvasSize is the preview canvas size for the asset in vp. Until the
// source can be decoded the default media size is assumed.
func (p *Previewer) CanvasSize(ctx context.Context, id uuid.UUID, vp Viewport) (image.Point, error) {
	media, err := p.MediaSize(ctx, id)
	if errors.Is(err, registry.ErrAssetNotFound) {
		return image.Point{}, err
	}
	if err != nil {
		media = DefaultMediaSize
	}
	return FitDimensions(p.currentViewport(vp), media, p.cfg.Padding), nil
}

// Preview renders the asset fitted into vp, or the last recorded viewport.
func (p *Previewer) Preview(ctx context.Context, id uuid.UUID, vp Viewport) (*Result, error) {
	asset, err := p.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Render(ctx, p.job(ctx, asset, p.currentViewport(vp)))
}

// Export renders an image asset at natural resolution and encodes a PNG.
func (p *Previewer) Export(ctx context.Context, id uuid.UUID) (*Export, error) {
	asset, err := p.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if asset.Kind == registry.KindVideo {
		return nil, ErrVideoExportUnsupported
	}
	if p.registry.IsProcessing(id) {
		return nil, registry.ErrAlreadyProcessing
	}

	res, err := p.pipeline.Render(ctx, p.job(ctx, asset, Viewport{}))
	if err != nil {
		return nil, err
	}
	if res.Degraded {
		return nil, fmt.Errorf("%w: asset %s could not be rendered", ErrExportFailed, id)
	}
	data, err := EncodePNG(res)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: ExportFilename(p.cfg.ExportPrefix, asset.Name), Data: data}, nil
}

// ExportFilename builds "<prefix>-<name without extension>.png".
func ExportFilename(prefix, name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == "/" {
		base = "export"
	}
	return fmt.Sprintf("%s-%s.png", prefix, base)
}

// EncodePNG writes a rendered preview.
func EncodePNG(res *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, res.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
