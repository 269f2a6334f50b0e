package engine

import (
	"bytes"
	"fmt"
	"image"

	"github.com/Kagami/go-face"
	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/disintegration/imaging"
)

// Dlib produces 128-d face embeddings with dlib's ResNet model.
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
type Dlib struct {
	rec    *face.Recognizer
	metric match.Metric
}

// NewDlib loads the recognition models from modelsDir.
func NewDlib(modelsDir string, metric match.Metric) (*Dlib, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models from %s: %w", modelsDir, err)
	}
	return &Dlib{rec: rec, metric: metric}, nil
}

func (d *Dlib) Kind() string         { return KindDlib }
func (d *Dlib) Metric() match.Metric { return d.metric }

func (d *Dlib) Enroll(path string) ([]float32, error) {
	return firstSignature(d, path)
}

// Faces runs detection and embedding on img. The recognizer only accepts
// JPEG, so the image is re-encoded first.
func (d *Dlib) Faces(img image.Image) ([]types.Face, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	found, err := d.rec.Recognize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	// Rectangles are relative to the encoded image, which starts at the origin.
	offset := img.Bounds().Min
	faces := make([]types.Face, len(found))
	for i, f := range found {
		sig := make([]float32, len(f.Descriptor))
		copy(sig, f.Descriptor[:])
		faces[i] = types.Face{Box: f.Rectangle.Add(offset), Signature: sig}
	}
	return faces, nil
}

func (d *Dlib) Close() error {
	d.rec.Close()
	return nil
}
