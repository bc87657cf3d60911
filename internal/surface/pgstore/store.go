package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS widget_surfaces (
	kind TEXT NOT NULL,
	surface_id TEXT NOT NULL,
	content JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, surface_id)
)`
	listSQL       = `SELECT surface_id FROM widget_surfaces WHERE kind = $1 ORDER BY surface_id`
	writeSQL      = `UPDATE widget_surfaces SET content = $3, updated_at = now() WHERE kind = $1 AND surface_id = $2`
	registerSQL   = `INSERT INTO widget_surfaces (kind, surface_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	unregisterSQL = `DELETE FROM widget_surfaces WHERE kind = $1 AND surface_id = $2`
	readSQL       = `SELECT content FROM widget_surfaces WHERE kind = $1 AND surface_id = $2`
)

// Store persists surfaces and their last content in Postgres.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the postgres driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db), nil
}

func (s *Store) Name() string { return "postgres" }

// EnsureSchema creates the surfaces table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

func (s *Store) List(ctx context.Context, kind domain.Kind) ([]surface.ID, error) {
	var raw []string
	if err := s.db.SelectContext(ctx, &raw, listSQL, string(kind)); err != nil {
		return nil, err
	}
	ids := make([]surface.ID, len(raw))
	for i, id := range raw {
		ids[i] = surface.ID(id)
	}
	return ids, nil
}

func (s *Store) Write(ctx context.Context, kind domain.Kind, id surface.ID, content surface.Content) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, writeSQL, string(kind), string(id), payload)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return surface.ErrUnknownSurface
	}
	return nil
}

func (s *Store) Register(ctx context.Context, kind domain.Kind, id surface.ID) error {
	_, err := s.db.ExecContext(ctx, registerSQL, string(kind), string(id))
	return err
}

func (s *Store) Unregister(ctx context.Context, kind domain.Kind, id surface.ID) error {
	_, err := s.db.ExecContext(ctx, unregisterSQL, string(kind), string(id))
	return err
}

func (s *Store) Read(ctx context.Context, kind domain.Kind, id surface.ID) (surface.Content, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, readSQL, string(kind), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return surface.Content{}, surface.ErrUnknownSurface
	}
	if err != nil {
		return surface.Content{}, err
	}
	var content surface.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return surface.Content{}, fmt.Errorf("decode surface %s/%s: %w", kind, id, err)
	}
	return content, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
