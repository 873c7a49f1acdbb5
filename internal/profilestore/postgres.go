package profilestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the voice_profiles table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS voice_profiles (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    pitch       DOUBLE PRECISION NOT NULL,
    tempo       DOUBLE PRECISION NOT NULL,
    source_path TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_voice_profiles_name ON voice_profiles(name);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// voice_profiles table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("profilestore: migrate: %w", err)
	}
	return nil
}

// Save stores rec under rec.Name, replacing any existing profile with that
// name, and fills in rec.ID and rec.CreatedAt.
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("profilestore: profile name must not be empty")
	}

	const query = `
		INSERT INTO voice_profiles (id, name, pitch, tempo, source_path)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE SET
			pitch = EXCLUDED.pitch,
			tempo = EXCLUDED.tempo,
			source_path = EXCLUDED.source_path,
			created_at = now()
		RETURNING id, created_at`

	err := s.db.QueryRow(ctx, query,
		uuid.NewString(), rec.Name, rec.Pitch, rec.Tempo, rec.SourcePath,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("profilestore: save %q: %w", rec.Name, err)
	}
	return nil
}

// Get retrieves the profile stored under name.
func (s *PostgresStore) Get(ctx context.Context, name string) (*Record, error) {
	const query = `
		SELECT id, name, pitch, tempo, source_path, created_at
		FROM voice_profiles
		WHERE name = $1`

	var rec Record
	err := s.db.QueryRow(ctx, query, name).Scan(
		&rec.ID, &rec.Name, &rec.Pitch, &rec.Tempo, &rec.SourcePath, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("profilestore: get %q: %w", name, err)
	}
	return &rec, nil
}

// List returns all stored profiles ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	const query = `
		SELECT id, name, pitch, tempo, source_path, created_at
		FROM voice_profiles
		ORDER BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("profilestore: list: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Pitch, &rec.Tempo, &rec.SourcePath, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("profilestore: list scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profilestore: list: %w", err)
	}
	return recs, nil
}

// Delete removes the profile stored under name. Deleting a non-existent
// profile is not an error.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM voice_profiles WHERE name = $1`
	if _, err := s.db.Exec(ctx, query, name); err != nil {
		return fmt.Errorf("profilestore: delete %q: %w", name, err)
	}
	return nil
}
