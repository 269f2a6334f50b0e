package render

import (
	"image"

	"github.com/andresmejia3/facereg/internal/types"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Annotate returns a copy of img with every detection drawn on it.
// Used when there is no window to show results in.
func Annotate(img image.Image, dets []types.Detection, style Style) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	dc.SetFontFace(basicfont.Face7x13)

	for _, d := range dets {
		box := d.Box.Sub(b.Min)
		dc.SetColor(BoxColor(d))

		dc.SetLineWidth(BoxThickness)
		dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
		dc.Stroke()

		band := Band(box)
		dc.DrawRectangle(float64(band.Min.X), float64(band.Min.Y), float64(band.Dx()), float64(band.Dy()))
		dc.Fill()

		origin := TextOrigin(box)
		dc.SetColor(ColorText)
		dc.DrawString(style.Label(d), float64(origin.X), float64(origin.Y))
	}
	return dc.Image()
}
