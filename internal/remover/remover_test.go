package remover

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFillInputTensor(t *testing.T) {
	const size = 8
	img := solidImage(32, 16, color.NRGBA{R: 255, G: 0, B: 127, A: 255})

	data := make([]float32, 3*size*size)
	fillInputTensor(img, data, size)

	channel := size * size

	// Solid input stays solid after resizing; check channel planes.
	assert.InDelta(t, (1.0-inputMean)/inputStd, data[0], 1e-3)            // red
	assert.InDelta(t, (0.0-inputMean)/inputStd, data[channel], 1e-3)      // green
	assert.InDelta(t, (127.0/255.0-inputMean)/inputStd, data[2*channel], 1e-2) // blue

	for i := 1; i < channel; i++ {
		assert.Equal(t, data[0], data[i])
	}
}

func TestMaskImage_Normalizes(t *testing.T) {
	// Raw model output with an arbitrary value range.
	data := []float32{-2, -2, 6, 6}
	mask := maskImage(data, 2)

	assert.Equal(t, uint8(0), mask.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), mask.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), mask.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(255), mask.GrayAt(1, 1).Y)
}

func TestMaskImage_FlatOutput(t *testing.T) {
	data := []float32{3, 3, 3, 3}
	mask := maskImage(data, 2)

	// A degenerate mask must not divide by zero.
	assert.Equal(t, uint8(0), mask.GrayAt(0, 0).Y)
}

func TestApplyMask(t *testing.T) {
	src := solidImage(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	out := applyMask(src, mask)
	require.Equal(t, 4, out.Bounds().Dx())
	require.Equal(t, 4, out.Bounds().Dy())

	left := out.NRGBAAt(0, 1)
	assert.Equal(t, uint8(255), left.A)
	assert.Equal(t, uint8(10), left.R)
	assert.Equal(t, uint8(20), left.G)
	assert.Equal(t, uint8(30), left.B)

	right := out.NRGBAAt(3, 1)
	assert.Equal(t, uint8(0), right.A)
}

func TestApplyMask_UpscalesMask(t *testing.T) {
	src := solidImage(16, 16, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	// Fully opaque low-resolution mask.
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	out := applyMask(src, mask)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			require.Equal(t, uint8(255), out.NRGBAAt(x, y).A)
		}
	}
}
