package report

import (
	"image"
	"image/color"
)

func newRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 59, G: 130, B: 246, A: 255})
		}
	}
	return img
}
