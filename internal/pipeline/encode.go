package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/bgcut/bgcut/internal/model"
)

// encodeResult serializes the cutout per the job options. PNG keeps the
// alpha channel; JPEG has none, so the cutout is composited over the
// configured background color first.
func encodeResult(img image.Image, opts model.Options) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)

	switch opts.Format {
	case model.FormatPNG:
		if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf, "image/png", nil

	case model.FormatJPEG:
		bounds := img.Bounds()
		dc := gg.NewContext(bounds.Dx(), bounds.Dy())
		dc.SetHexColor(opts.Background)
		dc.Clear()
		dc.DrawImage(img, 0, 0)

		if err := imaging.Encode(buf, dc.Image(), imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf, "image/jpeg", nil

	default:
		return nil, "", fmt.Errorf("unknown output format: %q", opts.Format)
	}
}
