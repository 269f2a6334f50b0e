package render

import (
	"fmt"
	"image"

	"github.com/andresmejia3/facereg/internal/types"
	"gocv.io/x/gocv"
)

// DrawMat draws every detection onto an OpenCV frame.
func DrawMat(frame *gocv.Mat, dets []types.Detection, style Style) error {
	scale := style.FontScale
	if scale == 0 {
		scale = 0.6
	}
	for _, d := range dets {
		c := BoxColor(d)
		if err := gocv.Rectangle(frame, d.Box, c, BoxThickness); err != nil {
			return err
		}
		// Negative thickness fills the rectangle.
		if err := gocv.Rectangle(frame, Band(d.Box), c, -1); err != nil {
			return err
		}
		if err := gocv.PutText(frame, style.Label(d), TextOrigin(d.Box), gocv.FontHersheyDuplex, scale, ColorText, 1); err != nil {
			return err
		}
	}
	return nil
}

// DrawFPS writes the frame rate in the top-left corner.
func DrawFPS(frame *gocv.Mat, fps float64) error {
	return gocv.PutText(frame, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 30), gocv.FontHersheySimplex, 1, ColorText, 2)
}
