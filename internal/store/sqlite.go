package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/andresmejia3/facereg/internal/gallery"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores the gallery in a single SQLite database file.
type SQLite struct {
	conn *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the database at path and migrates the schema.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS gallery_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		engine TEXT NOT NULL,
		dim INTEGER NOT NULL,
		source_hash TEXT NOT NULL DEFAULT '',
		built_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gallery_entries (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		signature BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) Location() string { return s.path }

func (s *SQLite) Close() error { return s.conn.Close() }

// Load reads the gallery metadata and every entry in enrollment order.
func (s *SQLite) Load(ctx context.Context) (*gallery.Gallery, error) {
	g := &gallery.Gallery{}
	err := s.conn.QueryRowContext(ctx,
		`SELECT engine, dim, source_hash, built_at FROM gallery_meta WHERE id = 1`,
	).Scan(&g.Engine, &g.Dim, &g.SourceHash, &g.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery metadata: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, source, signature, created_at FROM gallery_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e gallery.Entry
		var blob []byte
		if err := rows.Scan(&e.ID, &e.Name, &e.Source, &blob, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gallery entry: %w", err)
		}
		if e.Signature, err = decodeSignature(blob); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrCorrupt, e.Name, err)
		}
		g.Entries = append(g.Entries, e)
	}
	return g, rows.Err()
}

// Save replaces the stored gallery in one transaction.
func (s *SQLite) Save(ctx context.Context, g *gallery.Gallery) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gallery_entries`); err != nil {
		return fmt.Errorf("failed to clear gallery: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gallery_meta (id, engine, dim, source_hash, built_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			engine = excluded.engine, dim = excluded.dim,
			source_hash = excluded.source_hash, built_at = excluded.built_at
	`, g.Engine, g.Dim, g.SourceHash, g.BuiltAt.UTC()); err != nil {
		return fmt.Errorf("failed to save gallery metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gallery_entries (position, id, name, source, signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range g.Entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.Name, e.Source, encodeSignature(e.Signature), createdAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// Reset drops the gallery tables and recreates them empty.
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `
		DROP TABLE IF EXISTS gallery_entries;
		DROP TABLE IF EXISTS gallery_meta;
	`); err != nil {
		return err
	}
	return s.migrate()
}

// encodeSignature packs float32 values little-endian, 4 bytes each.
func encodeSignature(sig []float32) []byte {
	buf := make([]byte, 4*len(sig))
	for i, v := range sig {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeSignature(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("signature blob has %d bytes, not a multiple of 4", len(buf))
	}
	sig := make([]float32, len(buf)/4)
	for i := range sig {
		sig[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return sig, nil
}
