// Package profilestore persists extracted voice profiles so a reference
// recording only needs to be analyzed once.
package profilestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that no stored profile matches the requested name.
var ErrNotFound = errors.New("profilestore: profile not found")

// Record is a named voice profile with provenance.
type Record struct {
	// ID is the store-assigned identifier.
	ID string
	// Name is the caller-chosen unique name of the profile.
	Name string
	// Pitch is the extracted semitone deviation.
	Pitch float64
	// Tempo is the extracted tempo in BPM.
	Tempo float64
	// SourcePath is the reference audio file the profile was extracted from.
	SourcePath string
	// CreatedAt is when the profile was stored.
	CreatedAt time.Time
}

// Store is the abstraction over profile persistence backends.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores rec under rec.Name, replacing any existing profile with
	// that name, and fills in rec.ID and rec.CreatedAt.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves the profile stored under name. Returns an error
	// wrapping [ErrNotFound] if no such profile exists.
	Get(ctx context.Context, name string) (*Record, error)

	// List returns all stored profiles ordered by name.
	List(ctx context.Context) ([]Record, error)

	// Delete removes the profile stored under name. Deleting a missing
	// profile is not an error.
	Delete(ctx context.Context, name string) error
}
