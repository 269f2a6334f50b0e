// Package gallery holds the in-memory collection of enrolled faces and the
// directory scan that builds it.
package gallery

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one enrolled person: a name and the signature extracted from their photo.
type Entry struct {
	ID        string
	Name      string
	Source    string // enrollment file name, empty for entries added by hand
	Signature []float32
	CreatedAt time.Time
}

// Gallery is the ordered list of entries produced by one engine.
// It is replaced wholesale on every re-scan.
type Gallery struct {
	Engine     string
	Dim        int
	SourceHash string
	BuiltAt    time.Time
	Entries    []Entry
}

// ErrDimensionMismatch is returned when a signature does not fit the gallery.
var ErrDimensionMismatch = errors.New("signature dimension mismatch")

// New returns an empty gallery for the given engine.
func New(engine string) *Gallery {
	return &Gallery{Engine: engine, BuiltAt: time.Now().UTC()}
}

// NewEntry builds an entry with a fresh ID.
func NewEntry(name, source string, sig []float32) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Signature: sig,
		CreatedAt: time.Now().UTC(),
	}
}

// Add appends an entry. The first entry fixes the gallery's signature dimension.
func (g *Gallery) Add(e Entry) error {
	if len(e.Signature) == 0 {
		return fmt.Errorf("entry %q: %w", e.Name, ErrDimensionMismatch)
	}
	if g.Dim == 0 {
		g.Dim = len(e.Signature)
	}
	if len(e.Signature) != g.Dim {
		return fmt.Errorf("entry %q has %d values, gallery expects %d: %w", e.Name, len(e.Signature), g.Dim, ErrDimensionMismatch)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	g.Entries = append(g.Entries, e)
	return nil
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Entries)
}

// Names returns entry names aligned with Signatures.
func (g *Gallery) Names() []string {
	names := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		names[i] = e.Name
	}
	return names
}

// Signatures returns entry signatures aligned with Names.
func (g *Gallery) Signatures() [][]float32 {
	sigs := make([][]float32, len(g.Entries))
	for i, e := range g.Entries {
		sigs[i] = e.Signature
	}
	return sigs
}

// Validate checks that a gallery loaded from storage can be used with the given engine.
func (g *Gallery) Validate(engine string) error {
	if g.Engine != engine {
		return fmt.Errorf("gallery was built by engine %q, active engine is %q", g.Engine, engine)
	}
	for _, e := range g.Entries {
		if len(e.Signature) != g.Dim {
			return fmt.Errorf("entry %q has %d values, gallery expects %d: %w", e.Name, len(e.Signature), g.Dim, ErrDimensionMismatch)
		}
	}
	return nil
}
