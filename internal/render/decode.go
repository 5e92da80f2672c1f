package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"

	"editify-backend/internal/registry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrFFmpegUnavailable = errors.New("ffmpeg not available")

// FrameGrabber pulls a still frame out of a video by piping it through the
// ffmpeg CLI.
type FrameGrabber struct {
	path      string
	offset    string
	available bool
	logger    *slog.Logger
}

// NewFrameGrabber uses configuredPath when it exists, otherwise searches PATH.
func NewFrameGrabber(configuredPath, offset string, logger *slog.Logger) *FrameGrabber {
	g := &FrameGrabber{offset: offset, logger: logger}
	if g.offset == "" {
		g.offset = "1"
	}

	if configuredPath != "" && configuredPath != "ffmpeg" {
		if _, err := os.Stat(configuredPath); err == nil {
			g.path = configuredPath
		} else {
			logger.Warn("configured ffmpeg path is invalid, searching PATH", slog.String("path", configuredPath))
		}
	}
	if g.path == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			g.path = found
		}
	}
	g.available = g.path != ""
	if !g.available {
		logger.Warn("ffmpeg not found, video previews are disabled")
	}
	return g
}

func (g *FrameGrabber) Available() bool {
	return g != nil && g.available
}

// Grab returns the frame at the configured offset, falling back to the first
// frame for clips shorter than the offset. Frames above maxPixels are refused.
func (g *FrameGrabber) Grab(ctx context.Context, data []byte, maxPixels int64) (image.Image, error) {
	if !g.Available() {
		return nil, ErrFFmpegUnavailable
	}
	img, err := g.grabAt(ctx, data, g.offset, maxPixels)
	if err == nil || g.offset == "0" || ctx.Err() != nil || errors.Is(err, ErrImageTooLarge) {
		return img, err
	}
	g.logger.Debug("frame grab at offset failed, retrying at start", slog.String("err", err.Error()))
	return g.grabAt(ctx, data, "0", maxPixels)
}

func (g *FrameGrabber) grabAt(ctx context.Context, data []byte, offset string, maxPixels int64) (image.Image, error) {
	cmd := exec.CommandContext(ctx, g.path,
		"-hide_banner", "-loglevel", "error",
		"-ss", offset,
		"-i", "pipe:0",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run ffmpeg: %w: %s", err, errBuf.String())
	}
	if outBuf.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame: %s", errBuf.String())
	}
	if err := checkPixels(outBuf.Bytes(), maxPixels); err != nil {
		return nil, err
	}
	img, err := png.Decode(&outBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg frame: %w", err)
	}
	return img, nil
}

// DefaultMaxDecodePixels caps decoded images at 64 megapixels.
const DefaultMaxDecodePixels int64 = 64 << 20

var ErrImageTooLarge = errors.New("image dimensions too large")

// checkPixels reads only the header. Decoders allocate the full frame before
// any pixel data arrives, so the size has to be known up front.
func checkPixels(data []byte, maxPixels int64) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && px > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

// Decoder turns an asset's original bytes into pixels.
type Decoder struct {
	frames    *FrameGrabber
	maxPixels int64
}

// NewDecoder uses DefaultMaxDecodePixels when maxPixels is not positive.
func NewDecoder(frames *FrameGrabber, maxPixels int64) *Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxDecodePixels
	}
	return &Decoder{frames: frames, maxPixels: maxPixels}
}

func (d *Decoder) Decode(ctx context.Context, kind registry.Kind, data []byte) (image.Image, error) {
	switch kind {
	case registry.KindImage:
		if err := checkPixels(data, d.maxPixels); err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	case registry.KindVideo:
		if d.frames == nil {
			return nil, ErrFFmpegUnavailable
		}
		return d.frames.Grab(ctx, data, d.maxPixels)
	}
	return nil, fmt.Errorf("%w: %q", registry.ErrUnsupportedMediaKind, kind)
}
