// Package store persists a gallery to a single location: a gob file, a SQLite
// file, or a PostgreSQL database.
package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/andresmejia3/facereg/internal/gallery"
)

var (
	// ErrNotFound means nothing has been saved at the location yet.
	ErrNotFound = errors.New("gallery not found")
	// ErrCorrupt means something was saved but could not be decoded.
	ErrCorrupt = errors.New("gallery is corrupt")
)

// Store loads and saves a whole gallery. Saving replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context) (*gallery.Gallery, error)
	Save(ctx context.Context, g *gallery.Gallery) error
	// Reset removes the stored gallery.
	Reset(ctx context.Context) error
	// Location describes where the gallery lives, for log output.
	Location() string
	Close() error
}

// Kind identifies a storage backend.
type Kind string

const (
	KindFile     Kind = "file"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// KindOf picks the backend for a location string.
func KindOf(location string) Kind {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	case filepath.Ext(lower) == ".db", filepath.Ext(lower) == ".sqlite", filepath.Ext(lower) == ".sqlite3":
		return KindSQLite
	default:
		return KindFile
	}
}

// Open returns the backend that serves location.
func Open(ctx context.Context, location string) (Store, error) {
	switch KindOf(location) {
	case KindPostgres:
		return NewPostgres(ctx, location)
	case KindSQLite:
		return NewSQLite(location)
	default:
		return NewFile(location), nil
	}
}
