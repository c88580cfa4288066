package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filesmith/filesmith/internal/datauri"
	"github.com/filesmith/filesmith/internal/log"
)

// PostgresStore persists assets in the assets table (see db/migrations).
// Listing order is publication order (created_at, id).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a store backed by the given connection pool.
// The pool is owned by the store after this call; Close closes it.
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Publish inserts the data URI as a new asset row and returns its objref.
func (s *PostgresStore) Publish(ctx context.Context, sessionID uuid.UUID, dataURI string) (string, error) {
	d, err := datauri.Parse(dataURI)
	if err != nil {
		return "", fmt.Errorf("publishing asset: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assets (id, session_id, name, data) VALUES ($1, $2, $3, $4)`,
		pgtype.UUID{Bytes: id, Valid: true},
		pgtype.UUID{Bytes: sessionID, Valid: true},
		d.Filename,
		dataURI,
	)
	if err != nil {
		return "", fmt.Errorf("inserting asset: %w", err)
	}

	s.logger.Debug("asset published", "session_id", sessionID, "ref", NewRef(id))
	return NewRef(id), nil
}

// List returns the session's assets in publication order.
func (s *PostgresStore) List(ctx context.Context, sessionID uuid.UUID, includeName, includeData bool) ([]Asset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, data FROM assets WHERE session_id = $1 ORDER BY created_at, id`,
		pgtype.UUID{Bytes: sessionID, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("listing assets for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		var a Asset
		if includeName {
			a.Name = name
		}
		if includeData {
			a.Data = data
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating asset rows: %w", err)
	}
	return assets, nil
}

// Get retrieves one asset by reference. Returns ErrNotFound when no row
// matches.
func (s *PostgresStore) Get(ctx context.Context, sessionID uuid.UUID, ref string) (*Asset, error) {
	id, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	var a Asset
	err = s.pool.QueryRow(ctx,
		`SELECT name, data FROM assets WHERE session_id = $1 AND id = $2`,
		pgtype.UUID{Bytes: sessionID, Valid: true},
		pgtype.UUID{Bytes: id, Valid: true},
	).Scan(&a.Name, &a.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting asset %s: %w", ref, err)
	}
	return &a, nil
}

// Delete removes one asset by reference. Returns ErrNotFound when no row
// matches.
func (s *PostgresStore) Delete(ctx context.Context, sessionID uuid.UUID, ref string) error {
	id, err := ParseRef(ref)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM assets WHERE session_id = $1 AND id = $2`,
		pgtype.UUID{Bytes: sessionID, Valid: true},
		pgtype.UUID{Bytes: id, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("deleting asset %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("asset deleted", "session_id", sessionID, "ref", ref)
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
