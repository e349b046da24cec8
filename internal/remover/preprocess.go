package remover

import (
	"image"

	"github.com/nfnt/resize"
)

// Normalization applied to every channel before inference.
const (
	inputMean = 0.5
	inputStd  = 0.5
)

// fillInputTensor resizes the image to the model's square input and writes
// it into the tensor buffer in NCHW channel order.
func fillInputTensor(img image.Image, data []float32, size int) {
	scaled := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	channel := size * size
	red := data[0:channel]
	green := data[channel : 2*channel]
	blue := data[2*channel : 3*channel]

	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			red[i] = (float32(r>>8)/255.0 - inputMean) / inputStd
			green[i] = (float32(g>>8)/255.0 - inputMean) / inputStd
			blue[i] = (float32(b>>8)/255.0 - inputMean) / inputStd
			i++
		}
	}
}
