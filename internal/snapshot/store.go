// Package snapshot persists serialized index snapshots in PostgreSQL.
// A snapshot row is the engine's full JSON form; restoring one replaces
// the running index wholesale.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/postgres"
	"github.com/searchlite/searchlite/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	version    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Info describes a stored snapshot without its payload.
type Info struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	SizeBytes int       `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes snapshots in PostgreSQL.
type Store struct {
	pg     *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

// NewStore creates a Store and ensures the snapshots table exists.
func NewStore(ctx context.Context, pg *postgres.Client) (*Store, error) {
	s := &Store{
		pg:     pg,
		retry:  resilience.RetryConfig{MaxAttempts: 3},
		logger: logger.WithComponent("snapshot-store"),
	}
	if _, err := pg.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}
	return s, nil
}

// Save upserts a snapshot under the given name. The write runs in a
// transaction so a retried attempt never observes a half-written row.
func (s *Store) Save(ctx context.Context, name, version, payload string) error {
	err := resilience.Retry(ctx, "snapshot-save", s.retry, func() error {
		return s.pg.InTx(ctx, func(tx *sql.Tx) error {
			_, execErr := tx.ExecContext(ctx,
				`INSERT INTO snapshots (name, version, payload, created_at)
				 VALUES ($1, $2, $3, now())
				 ON CONFLICT (name) DO UPDATE
				 SET version = EXCLUDED.version, payload = EXCLUDED.payload, created_at = now()`,
				name, version, payload,
			)
			return execErr
		})
	})
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", name, err)
	}
	s.logger.Info("snapshot saved", "name", name, "version", version, "size_bytes", len(payload))
	return nil
}

// Load returns the payload of the named snapshot.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	var payload string
	err := s.pg.DB.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE name = $1`, name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.Newf(apperrors.ErrSnapshotNotFound, 404, "snapshot %q", name)
	}
	if err != nil {
		return "", fmt.Errorf("loading snapshot %s: %w", name, err)
	}
	return payload, nil
}

// LoadLatest returns the most recently saved snapshot's name and payload.
func (s *Store) LoadLatest(ctx context.Context) (name, payload string, err error) {
	err = s.pg.DB.QueryRowContext(ctx,
		`SELECT name, payload FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&name, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", apperrors.New(apperrors.ErrSnapshotNotFound, 404, "no snapshots stored")
	}
	if err != nil {
		return "", "", fmt.Errorf("loading latest snapshot: %w", err)
	}
	return name, payload, nil
}

// List returns metadata for all stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.pg.DB.QueryContext(ctx,
		`SELECT name, version, length(payload), created_at
		 FROM snapshots ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	infos := make([]Info, 0)
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Version, &info.SizeBytes, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return infos, nil
}

// Delete removes the named snapshot. Unknown names are a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.pg.DB.ExecContext(ctx, `DELETE FROM snapshots WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", name, err)
	}
	return nil
}
