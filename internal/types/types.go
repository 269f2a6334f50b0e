package types

import (
	"errors"
	"image"
)

// ErrNoFace is returned when an image contains no detectable face.
var ErrNoFace = errors.New("no face found")

// UnknownName is the label given to faces that match no gallery entry.
const UnknownName = "Unknown"

// Face is a single face found by an engine in one image or frame.
type Face struct {
	Box       image.Rectangle
	Signature []float32
}

// Detection is the ephemeral per-frame result for one face: where it is and who it is.
type Detection struct {
	Box        image.Rectangle
	Name       string
	Score      float64 // raw metric output (distance or similarity)
	Confidence float64
	Known      bool
}

// Scale returns a copy of the detection with its box multiplied by factor.
// Used to map boxes found on a downscaled frame back to the original frame.
func (d Detection) Scale(factor float64) Detection {
	d.Box = image.Rect(
		int(float64(d.Box.Min.X)*factor),
		int(float64(d.Box.Min.Y)*factor),
		int(float64(d.Box.Max.X)*factor),
		int(float64(d.Box.Max.Y)*factor),
	)
	return d
}
