package converter

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

const fitQuality = 92

// Fit rewrites the image at path as a JPEG whose longest edge is at most the configured maximum. Images already
// within bounds, and every image when no maximum is configured, are left untouched.
func (c *FFmpegConverter) Fit(ctx context.Context, path string) error {
	return fit(ctx, path, c.maxDimension)
}

func fit(ctx context.Context, path string, maxDimension int) error {
	if maxDimension <= 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := scaledDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if width == bounds.Dx() && height == bounds.Dy() {
		return nil
	}

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	if err := writeJPEG(path, resized); err != nil {
		return err
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("new_width", width).
		Int("new_height", height).
		Msg("downscaled image")

	return nil
}

// writeJPEG encodes img next to path and renames it into place once fully written, so path is either the old
// image or the complete new one.
func writeJPEG(path string, img image.Image) (err error) {
	tmp := path + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to rewrite image: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: fitQuality}); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace image: %w", err)
	}

	return nil
}

// scaledDimensions keeps the aspect ratio and never upscales.
func scaledDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width >= height {
		h := height * maxDimension / width
		return maxDimension, max(h, 1)
	}

	w := width * maxDimension / height
	return max(w, 1), maxDimension
}
