// Package engine wraps the face detectors and signature extractors behind one
// interface: dlib embeddings, OpenCV Haar cascades, and the pure-Go pico detector.
package engine

import (
	"fmt"
	"image"
	"strings"

	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	// Register BMP and TIFF decoders for enrollment images.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	KindDlib    = "dlib"
	KindCascade = "cascade"
	KindPigo    = "pigo"
)

// Kinds lists the available engines.
func Kinds() []string {
	return []string{KindDlib, KindCascade, KindPigo}
}

// Engine detects faces and turns each one into a signature.
type Engine interface {
	Kind() string
	// Enroll returns the signature of the first face in the image file,
	// or types.ErrNoFace when there is none.
	Enroll(path string) ([]float32, error)
	// Faces returns every face in img with its box and signature.
	Faces(img image.Image) ([]types.Face, error)
	// Metric is how signatures from this engine are compared.
	Metric() match.Metric
	Close() error
}

// MatDetector is implemented by engines that can work directly on an OpenCV
// frame, skipping the conversion to image.Image.
type MatDetector interface {
	FacesMat(frame gocv.Mat) ([]types.Face, error)
}

// Config selects and configures an engine.
type Config struct {
	Kind        string
	ModelsDir   string // dlib model files
	CascadeFile string // Haar XML for cascade, pico binary for pigo
	Metric      match.Metric
}

// Default model locations, relative to the working directory.
const (
	DefaultModelsDir       = "models"
	DefaultHaarCascadeFile = "haarcascade_frontalface_default.xml"
	DefaultPicoCascadeFile = "facefinder"
)

// New builds the engine named by cfg.Kind.
func New(cfg Config) (Engine, error) {
	metric, err := MetricFor(cfg.Kind, cfg.Metric)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindDlib:
		dir := cfg.ModelsDir
		if dir == "" {
			dir = DefaultModelsDir
		}
		return NewDlib(dir, metric)
	case KindCascade:
		file := cfg.CascadeFile
		if file == "" {
			file = DefaultHaarCascadeFile
		}
		return NewCascade(file)
	case KindPigo:
		file := cfg.CascadeFile
		if file == "" {
			file = DefaultPicoCascadeFile
		}
		return NewPigo(file)
	default:
		return nil, fmt.Errorf("unknown engine %q (want %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
}

// MetricFor resolves the metric an engine will use. An empty requested metric
// picks the engine default. Patch engines only support NCC.
func MetricFor(kind string, requested match.Metric) (match.Metric, error) {
	switch kind {
	case KindDlib:
		if requested == "" {
			return match.Euclidean, nil
		}
		if requested == match.NCC {
			return "", fmt.Errorf("engine %s compares embeddings and does not support metric %s", kind, requested)
		}
		return requested, nil
	case KindCascade, KindPigo:
		if requested != "" && requested != match.NCC {
			return "", fmt.Errorf("engine %s compares patches and only supports metric %s", kind, match.NCC)
		}
		return match.NCC, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want %s)", kind, strings.Join(Kinds(), ", "))
	}
}

// Downscale is the factor frames are shrunk by before detection in the video loop.
func Downscale(kind string) float64 {
	if kind == KindDlib {
		return 0.25
	}
	return 0.5
}

// LoadImage decodes an image file in any supported format, honouring EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// firstSignature is the shared Enroll body: decode, detect, keep the first face.
func firstSignature(e Engine, path string) ([]float32, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	faces, err := e.Faces(img)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, types.ErrNoFace
	}
	return faces[0].Signature, nil
}
