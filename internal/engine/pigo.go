package engine

import (
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// Detection tuning for the pico cascade.
const (
	pigoMinSize      = 20
	pigoShiftFactor  = 0.1
	pigoScaleFactor  = 1.1
	pigoIoUThreshold = 0.2
	pigoMinQuality   = 5.0
)

// Pigo detects faces with the pure-Go pico cascade and signs them with a
// grayscale patch, like the Haar cascade engine.
type Pigo struct {
	classifier *pigo.Pigo
}

// NewPigo unpacks the binary cascade file (e.g. "facefinder").
func NewPigo(cascadeFile string) (*Pigo, error) {
	data, err := os.ReadFile(cascadeFile)
	if err != nil {
		return nil, fmt.Errorf("can not open cascade file %s: %w", cascadeFile, err)
	}

	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade file %s: %w", cascadeFile, err)
	}
	return &Pigo{classifier: classifier}, nil
}

func (p *Pigo) Kind() string         { return KindPigo }
func (p *Pigo) Metric() match.Metric { return match.NCC }
func (p *Pigo) Close() error         { return nil }

func (p *Pigo) Enroll(path string) ([]float32, error) {
	return firstSignature(p, path)
}

// Faces detects faces in img, strongest detection first.
func (p *Pigo) Faces(img image.Image) ([]types.Face, error) {
	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	params := pigo.CascadeParams{
		MinSize:     pigoMinSize,
		MaxSize:     max(cols, rows),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := p.classifier.RunCascade(params, 0.0)
	dets = p.classifier.ClusterDetections(dets, pigoIoUThreshold)
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Q > dets[j].Q })

	var faces []types.Face
	for _, det := range dets {
		if det.Q < pigoMinQuality {
			continue
		}
		half := det.Scale / 2
		box := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Intersect(src.Bounds())
		sig := Patch(src, box)
		if sig == nil {
			continue
		}
		// Boxes are reported in the caller's coordinate space.
		faces = append(faces, types.Face{Box: box.Add(img.Bounds().Min), Signature: sig})
	}
	return faces, nil
}
