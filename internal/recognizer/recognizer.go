// Package recognizer ties an engine, a gallery store and a matcher together:
// it builds or loads the gallery, enrolls new people and identifies faces.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/andresmejia3/facereg/internal/engine"
	"github.com/andresmejia3/facereg/internal/gallery"
	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/store"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/sirupsen/logrus"
)

// Options configures a System.
type Options struct {
	// EnrollDir is the folder of <name>.<ext> reference photos.
	EnrollDir string
	// Threshold overrides the metric's default acceptance threshold when set.
	// Zero is a valid threshold.
	Threshold *float64
	// AutoRebuild rescans the enrollment folder when its contents changed since
	// the stored gallery was built. Otherwise a warning is logged.
	AutoRebuild bool
	Log         logrus.FieldLogger
	// Progress receives the enrollment progress bar; nil disables it.
	Progress io.Writer
}

// System is one recognition session.
type System struct {
	engine  engine.Engine
	store   store.Store
	matcher match.Matcher
	opts    Options
	log     logrus.FieldLogger
	gallery *gallery.Gallery
}

// New wires an engine to a store. No I/O happens until LoadOrCreate.
func New(e engine.Engine, s store.Store, opts Options) *System {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	threshold := e.Metric().DefaultThreshold()
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	return &System{
		engine:  e,
		store:   s,
		matcher: match.Matcher{Metric: e.Metric(), Threshold: threshold},
		opts:    opts,
		log:     log,
		gallery: gallery.New(e.Kind()),
	}
}

// Gallery returns the gallery currently in memory.
func (s *System) Gallery() *gallery.Gallery { return s.gallery }

// Matcher returns the metric and threshold in use.
func (s *System) Matcher() match.Matcher { return s.matcher }

// LoadOrCreate loads the stored gallery, building it from the enrollment folder
// when nothing usable is stored.
func (s *System) LoadOrCreate(ctx context.Context) error {
	g, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.log.WithField("location", s.store.Location()).Info("no saved gallery, building from images")
		return s.Create(ctx)
	case err != nil:
		s.log.WithError(err).Warn("failed to load gallery, rebuilding from images")
		return s.Create(ctx)
	}

	if err := g.Validate(s.engine.Kind()); err != nil {
		s.log.WithError(err).Warn("stored gallery does not fit the active engine, rebuilding")
		return s.Create(ctx)
	}

	if stale, err := s.isStale(g); err != nil {
		s.log.WithError(err).Debug("could not fingerprint enrollment folder")
	} else if stale {
		if s.opts.AutoRebuild {
			s.log.Info("enrollment folder changed, rebuilding gallery")
			return s.Create(ctx)
		}
		s.log.Warn("enrollment folder changed since the gallery was built; run setup --rebuild to refresh it")
	}

	s.gallery = g
	s.log.WithField("people", g.Len()).Info("gallery loaded")
	return nil
}

// Reload re-reads the gallery. Used by the video loop's reload key.
func (s *System) Reload(ctx context.Context) error {
	return s.LoadOrCreate(ctx)
}

func (s *System) isStale(g *gallery.Gallery) (bool, error) {
	// Hand-built galleries (add) carry no hash.
	if g.SourceHash == "" || s.opts.EnrollDir == "" {
		return false, nil
	}
	hash, err := gallery.SourceHash(s.opts.EnrollDir)
	if err != nil {
		return false, err
	}
	return hash != g.SourceHash, nil
}

// Create scans the enrollment folder, replacing the gallery in memory, and
// saves it when at least one person was enrolled.
func (s *System) Create(ctx context.Context) error {
	if err := os.MkdirAll(s.opts.EnrollDir, 0755); err != nil {
		return fmt.Errorf("failed to create enrollment folder: %w", err)
	}

	g, err := gallery.Scan(s.opts.EnrollDir, s.engine, gallery.ScanOptions{Log: s.log, Progress: s.opts.Progress})
	if err != nil {
		return err
	}
	s.gallery = g

	if g.Len() == 0 {
		s.log.WithField("folder", s.opts.EnrollDir).Warn("no one enrolled; add photos named <person_name>.jpg")
		return nil
	}
	if err := s.store.Save(ctx, g); err != nil {
		return fmt.Errorf("failed to save gallery: %w", err)
	}
	s.log.WithFields(logrus.Fields{"people": g.Len(), "location": s.store.Location()}).Info("gallery saved")
	return nil
}

// AddPerson enrolls one image under an explicit name and saves the gallery.
func (s *System) AddPerson(ctx context.Context, path, name string) error {
	sig, err := s.engine.Enroll(path)
	if err != nil {
		return fmt.Errorf("failed to enroll %s: %w", filepath.Base(path), err)
	}
	if err := s.gallery.Add(gallery.NewEntry(name, filepath.Base(path), sig)); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.gallery); err != nil {
		return fmt.Errorf("failed to save gallery: %w", err)
	}
	s.log.WithField("name", name).Info("person added")
	return nil
}

// Identify matches one detected face against the gallery.
func (s *System) Identify(f types.Face) types.Detection {
	res := s.matcher.Identify(s.gallery.Signatures(), f.Signature)
	det := types.Detection{Box: f.Box, Name: types.UnknownName, Score: res.Score}
	if res.Known {
		det.Name = s.gallery.Entries[res.Index].Name
		det.Confidence = res.Confidence
		det.Known = true
	}
	return det
}

// IdentifyAll matches every face.
func (s *System) IdentifyAll(faces []types.Face) []types.Detection {
	dets := make([]types.Detection, len(faces))
	for i, f := range faces {
		dets[i] = s.Identify(f)
	}
	return dets
}

// RecognizeImage detects and identifies every face in img.
func (s *System) RecognizeImage(img image.Image) ([]types.Detection, error) {
	faces, err := s.engine.Faces(img)
	if err != nil {
		return nil, err
	}
	return s.IdentifyAll(faces), nil
}

// RecognizeFile loads an image file and recognizes it.
func (s *System) RecognizeFile(path string) (image.Image, []types.Detection, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("image file not found: %s", path)
	}
	img, err := engine.LoadImage(path)
	if err != nil {
		return nil, nil, err
	}
	dets, err := s.RecognizeImage(img)
	if err != nil {
		return nil, nil, err
	}
	return img, dets, nil
}
