package gallery

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/andresmejia3/facereg/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Extractor turns an enrollment image into a signature of its first face.
type Extractor interface {
	Kind() string
	Enroll(path string) ([]float32, error)
}

// ScanOptions controls console output during a scan.
type ScanOptions struct {
	Log      logrus.FieldLogger
	Progress io.Writer // nil disables the progress bar
}

// ListImages returns the supported image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedImage(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Scan builds a new gallery from every supported image in dir.
// Files without a face or that fail to process are logged and skipped.
func Scan(dir string, ex Extractor, opts ScanOptions) (*Gallery, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	paths, err := ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollment directory: %w", err)
	}

	g := New(ex.Kind())
	if g.SourceHash, err = SourceHash(dir); err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("🧑 Enrolling faces"),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionShowCount(),
		)
	}

	for _, path := range paths {
		if bar != nil {
			bar.Add(1)
		}
		file := filepath.Base(path)

		sig, err := ex.Enroll(path)
		if errors.Is(err, types.ErrNoFace) {
			log.WithField("file", file).Warn("no face found")
			continue
		}
		if err != nil {
			log.WithField("file", file).WithError(err).Error("failed to process image")
			continue
		}

		name := NameFromFile(path)
		if err := g.Add(NewEntry(name, file, sig)); err != nil {
			log.WithField("file", file).WithError(err).Error("failed to enroll face")
			continue
		}
		log.WithField("name", name).Info("processed")
	}

	if bar != nil {
		bar.Finish()
	}
	return g, nil
}

// SourceHash fingerprints the enrollment directory from the names, sizes and
// modification times of its supported images. A gallery whose hash differs from
// the directory's current hash was built from different photos.
func SourceHash(dir string) (string, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list enrollment directory: %w", err)
	}
	h := sha256.New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s-%d-%d\n", filepath.Base(p), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
