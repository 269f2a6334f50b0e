package engine

import (
	"image"

	"github.com/disintegration/imaging"
)

// PatchSize is the side of the square grayscale template used by the patch engines.
const PatchSize = 100

// Patch crops box out of img, converts it to grayscale, resizes it to
// PatchSize x PatchSize and flattens it row-major into values 0..255.
// Returns nil when the box does not overlap the image.
func Patch(img image.Image, box image.Rectangle) []float32 {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return nil
	}
	face := imaging.Crop(img, box)
	face = imaging.Grayscale(face)
	face = imaging.Resize(face, PatchSize, PatchSize, imaging.Linear)
	return flattenGray(face)
}

// flattenGray reads one channel of an NRGBA image that is already grayscale.
func flattenGray(img *image.NRGBA) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, float32(row[x*4]))
		}
	}
	return out
}
