// Package render draws recognition results: a box around each face and a
// filled name band along its bottom edge.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/andresmejia3/facereg/internal/types"
)

var (
	ColorKnown   = color.RGBA{0, 255, 0, 255}
	ColorUnknown = color.RGBA{255, 0, 0, 255}
	ColorText    = color.RGBA{255, 255, 255, 255}
)

const (
	BoxThickness = 2
	BandHeight   = 35
	TextInset    = 6
)

// Style controls how labels are written.
type Style struct {
	// ShowScore appends the confidence to known names: "Ana (0.87)".
	ShowScore bool
	FontScale float64
}

// Label is the text drawn under a face.
func (s Style) Label(d types.Detection) string {
	if !d.Known {
		return types.UnknownName
	}
	if s.ShowScore {
		return fmt.Sprintf("%s (%.2f)", d.Name, d.Confidence)
	}
	return d.Name
}

// BoxColor is green for known faces and red otherwise.
func BoxColor(d types.Detection) color.RGBA {
	if d.Known {
		return ColorKnown
	}
	return ColorUnknown
}

// Band is the filled label area along the bottom of box.
func Band(box image.Rectangle) image.Rectangle {
	return image.Rect(box.Min.X, box.Max.Y-BandHeight, box.Max.X, box.Max.Y)
}

// TextOrigin is the baseline start of the label text.
func TextOrigin(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X+TextInset, box.Max.Y-TextInset)
}
