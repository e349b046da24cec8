package remover

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// maskImage converts the model's raw output into a grayscale mask,
// min-max normalized so the foreground spans the full [0,255] range.
func maskImage(data []float32, size int) *image.Gray {
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	mask := image.NewGray(image.Rect(0, 0, size, size))
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			mask.SetGray(x, y, color.Gray{Y: uint8((data[i] - lo) / span * 255)})
			i++
		}
	}

	return mask
}

// applyMask upscales the mask to the source size and applies it as the
// alpha channel of the original image.
func applyMask(src image.Image, mask *image.Gray) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scaled := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			a := scaled.GrayAt(x, y).Y
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: a,
			})
		}
	}

	return out
}
