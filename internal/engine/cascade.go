package engine

import (
	"fmt"
	"image"

	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/types"
	"gocv.io/x/gocv"
)

// Haar detection parameters.
const (
	haarScaleFactor  = 1.1
	haarMinNeighbors = 4
)

// Cascade detects faces with an OpenCV Haar cascade and signs each one with a
// PatchSize x PatchSize grayscale template.
type Cascade struct {
	classifier gocv.CascadeClassifier
}

// NewCascade loads a Haar cascade XML file.
func NewCascade(file string) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(file) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade file %s", file)
	}
	return &Cascade{classifier: classifier}, nil
}

func (c *Cascade) Kind() string         { return KindCascade }
func (c *Cascade) Metric() match.Metric { return match.NCC }

func (c *Cascade) Close() error {
	return c.classifier.Close()
}

// Enroll reads the file with OpenCV, which decodes every supported format natively.
func (c *Cascade) Enroll(path string) ([]float32, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}

	faces, err := c.FacesMat(mat)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, types.ErrNoFace
	}
	return faces[0].Signature, nil
}

func (c *Cascade) Faces(img image.Image) ([]types.Face, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	faces, err := c.FacesMat(mat)
	if err != nil {
		return nil, err
	}
	offset := img.Bounds().Min
	for i := range faces {
		faces[i].Box = faces[i].Box.Add(offset)
	}
	return faces, nil
}

// FacesMat detects faces on a BGR frame.
func (c *Cascade) FacesMat(frame gocv.Mat) ([]types.Face, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert to grayscale: %w", err)
	}

	rects := c.classifier.DetectMultiScaleWithParams(gray, haarScaleFactor, haarMinNeighbors, 0, image.Point{}, image.Point{})

	faces := make([]types.Face, 0, len(rects))
	for _, r := range rects {
		sig, err := matPatch(gray, r)
		if err != nil {
			return nil, err
		}
		faces = append(faces, types.Face{Box: r, Signature: sig})
	}
	return faces, nil
}

// matPatch resizes the region r of a grayscale Mat to a flattened template.
func matPatch(gray gocv.Mat, r image.Rectangle) ([]float32, error) {
	roi := gray.Region(r)
	defer roi.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(roi, &resized, image.Pt(PatchSize, PatchSize), 0, 0, gocv.InterpolationLinear); err != nil {
		return nil, fmt.Errorf("failed to resize face: %w", err)
	}

	data := resized.ToBytes()
	sig := make([]float32, len(data))
	for i, v := range data {
		sig[i] = float32(v)
	}
	return sig, nil
}
