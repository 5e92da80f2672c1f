// Package render turns an asset and its edit state into pixels: a fitted
// preview for the editor canvas or a full-resolution PNG export.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"editify-backend/internal/edits"

	"github.com/disintegration/imaging"
)

var placeholderColor = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

var ErrStagePanic = errors.New("render stage panicked")

// Job is one render request. A zero Viewport renders at natural size.
type Job struct {
	Source     image.Image
	State      edits.EditState
	Viewport   Viewport
	Padding    int
	Background image.Image
}

type Result struct {
	Image    *image.NRGBA
	Degraded bool
}

type Pipeline struct {
	fonts  *FontBook
	logger *slog.Logger
}

func NewPipeline(fonts *FontBook, logger *slog.Logger) *Pipeline {
	if fonts == nil {
		fonts = NewFontBook()
	}
	return &Pipeline{fonts: fonts, logger: logger}
}

// Render composes the stages in a fixed order on a private buffer. Stage
// failures fall back to the unedited fitted source and are logged; a missing
// source yields a neutral placeholder. Only context cancellation is returned.
func (p *Pipeline) Render(ctx context.Context, job Job) (*Result, error) {
	if job.Source == nil {
		size := p.targetSize(job, DefaultMediaSize)
		p.logger.Warn("rendering placeholder, source unavailable")
		return &Result{Image: imaging.New(size.X, size.Y, placeholderColor), Degraded: true}, nil
	}

	img, err := p.safeCompose(ctx, job)
	if err == nil {
		return &Result{Image: img}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	p.logger.Warn("render failed, falling back to unedited preview", slog.String("err", err.Error()))
	return &Result{Image: p.unedited(job), Degraded: true}, nil
}

// unedited fits the raw source, or paints the placeholder when even that
// cannot be read.
func (p *Pipeline) unedited(job Job) (img *image.NRGBA) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("source unreadable, rendering placeholder", slog.Any("panic", r))
			size := p.targetSize(job, DefaultMediaSize)
			img = imaging.New(size.X, size.Y, placeholderColor)
		}
	}()
	size := p.targetSize(job, job.Source.Bounds().Size())
	return imaging.Resize(job.Source, size.X, size.Y, imaging.Lanczos)
}

func (p *Pipeline) targetSize(job Job, natural image.Point) image.Point {
	if job.Viewport.IsZero() {
		return natural
	}
	return FitDimensions(job.Viewport, natural, job.Padding)
}

// safeCompose turns a panic inside an imaging stage into an ordinary stage
// error so the caller can degrade.
func (p *Pipeline) safeCompose(ctx context.Context, job Job) (img *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return p.compose(ctx, job)
}

func (p *Pipeline) compose(ctx context.Context, job Job) (*image.NRGBA, error) {
	img := applyGeometry(job.Source, job.State.Crop)

	size := p.targetSize(job, img.Bounds().Size())
	if size != img.Bounds().Size() {
		img = imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := substituteBackground(img, job.State.Background, job.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = filterPass(img, job.State.Filters)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = applyEffects(img, job.State.Effects)
	if err := p.fonts.drawText(img, job.State.Text); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	return img, nil
}
