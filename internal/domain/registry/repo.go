package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a registry entry does not exist.
var ErrNotFound = errors.New("registry entry not found")

type EntryRepository interface {
	Create(ctx context.Context, kind Kind, e *Entry) error
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Entry, error)
	GetByName(ctx context.Context, kind Kind, name string) (*Entry, error)
	GetOrCreate(ctx context.Context, kind Kind, name string) (*Entry, error)
	Update(ctx context.Context, kind Kind, e *Entry) error
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	List(ctx context.Context, kind Kind) ([]*Entry, error)
}

type SegmentRepository interface {
	Create(ctx context.Context, s *AgeSegment) error
	GetByID(ctx context.Context, id uuid.UUID) (*AgeSegment, error)
	Update(ctx context.Context, s *AgeSegment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*AgeSegment, error)
	// Overlapping returns every segment intersecting [minAge, maxAge),
	// excluding the segment with excludeID (pass uuid.Nil to exclude none).
	Overlapping(ctx context.Context, minAge, maxAge int, excludeID uuid.UUID) ([]*AgeSegment, error)
	// ForAge returns the segment containing age, or nil when none does.
	ForAge(ctx context.Context, age int) (*AgeSegment, error)
}
