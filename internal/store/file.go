package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresmejia3/facereg/internal/gallery"
)

const fileFormatVersion = 1

// fileFormat is the on-disk envelope. Version guards against decoding a file
// written by an incompatible build.
type fileFormat struct {
	Version int
	Gallery gallery.Gallery
}

// File stores the gallery as a single gob-encoded file.
type File struct {
	path string
}

// NewFile returns a file store at path. Nothing is touched until Load or Save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Location() string { return f.path }

func (f *File) Close() error { return nil }

// Load decodes the gallery file.
func (f *File) Load(ctx context.Context) (*gallery.Gallery, error) {
	fh, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var data fileFormat
	if err := gob.NewDecoder(fh).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	if data.Version != fileFormatVersion {
		return nil, fmt.Errorf("%w: %s: unsupported format version %d", ErrCorrupt, f.path, data.Version)
	}
	return &data.Gallery, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so a crash never leaves a half-written gallery behind.
func (f *File) Save(ctx context.Context, g *gallery.Gallery) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(fileFormat{Version: fileFormatVersion, Gallery: *g}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode gallery: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Reset deletes the gallery file.
func (f *File) Reset(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
