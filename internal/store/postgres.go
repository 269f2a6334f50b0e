package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresmejia3/facereg/internal/gallery"
	"github.com/jackc/pgx/v5"
)

// Postgres stores the gallery in a PostgreSQL database.
type Postgres struct {
	conn *pgx.Conn
}

// NewPostgres establishes a connection to the database and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Postgres{conn: conn}, nil
}

// initSchema creates the gallery tables if they don't exist.
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS gallery_meta (
			id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			engine TEXT NOT NULL,
			dim INT NOT NULL,
			source_hash TEXT NOT NULL DEFAULT '',
			built_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS gallery_entries (
			position INT PRIMARY KEY,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			signature REAL[] NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Location returns the connection string with credentials redacted.
func (p *Postgres) Location() string {
	cfg := p.conn.Config()
	return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}

// Close terminates the database connection.
func (p *Postgres) Close() error {
	// Background: the command context may already be cancelled (Ctrl+C) and we
	// still want a clean disconnect.
	return p.conn.Close(context.Background())
}

// Load reads the gallery metadata and every entry in enrollment order.
func (p *Postgres) Load(ctx context.Context) (*gallery.Gallery, error) {
	g := &gallery.Gallery{}
	err := p.conn.QueryRow(ctx,
		`SELECT engine, dim, source_hash, built_at FROM gallery_meta WHERE id = 1`,
	).Scan(&g.Engine, &g.Dim, &g.SourceHash, &g.BuiltAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx,
		`SELECT id, name, source, signature, created_at FROM gallery_entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e gallery.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Source, &e.Signature, &e.CreatedAt); err != nil {
			return nil, err
		}
		g.Entries = append(g.Entries, e)
	}
	return g, rows.Err()
}

// Save replaces the stored gallery in one transaction, bulk-loading entries with COPY.
func (p *Postgres) Save(ctx context.Context, g *gallery.Gallery) error {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM gallery_entries"); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO gallery_meta (id, engine, dim, source_hash, built_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			engine = EXCLUDED.engine, dim = EXCLUDED.dim,
			source_hash = EXCLUDED.source_hash, built_at = EXCLUDED.built_at
	`, g.Engine, g.Dim, g.SourceHash, g.BuiltAt)
	if err != nil {
		return err
	}

	rows := make([][]any, len(g.Entries))
	for i, e := range g.Entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		rows[i] = []any{i, e.ID, e.Name, e.Source, e.Signature, createdAt}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"gallery_entries"},
		[]string{"position", "id", "name", "source", "signature", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy gallery entries: %w", err)
	}

	return tx.Commit(ctx)
}

// Reset drops the gallery tables and recreates them empty.
func (p *Postgres) Reset(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, `
		DROP TABLE IF EXISTS gallery_entries CASCADE;
		DROP TABLE IF EXISTS gallery_meta CASCADE;
	`)
	if err != nil {
		return err
	}
	return initSchema(ctx, p.conn)
}
