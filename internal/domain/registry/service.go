package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	entries  EntryRepository
	segments SegmentRepository
}

func NewService(entries EntryRepository, segments SegmentRepository) *Service {
	return &Service{entries: entries, segments: segments}
}

// -- Name-only registries --

func (s *Service) CreateEntry(ctx context.Context, kind Kind, e *Entry) error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.entries.Create(ctx, kind, e)
}

func (s *Service) GetEntry(ctx context.Context, kind Kind, id uuid.UUID) (*Entry, error) {
	return s.entries.GetByID(ctx, kind, id)
}

func (s *Service) GetEntryByName(ctx context.Context, kind Kind, name string) (*Entry, error) {
	return s.entries.GetByName(ctx, kind, name)
}

// GetOrCreateEntry is used by the import tooling only; the core never
// mutates the registries.
func (s *Service) GetOrCreateEntry(ctx context.Context, kind Kind, name string) (*Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	return s.entries.GetOrCreate(ctx, kind, name)
}

func (s *Service) UpdateEntry(ctx context.Context, kind Kind, e *Entry) error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.entries.Update(ctx, kind, e)
}

func (s *Service) DeleteEntry(ctx context.Context, kind Kind, id uuid.UUID) error {
	return s.entries.Delete(ctx, kind, id)
}

func (s *Service) ListEntries(ctx context.Context, kind Kind) ([]*Entry, error) {
	return s.entries.List(ctx, kind)
}

// LookupStatus resolves an access status by name. A missing status is
// ErrNotFound, never a silent default.
func (s *Service) LookupStatus(ctx context.Context, name string) (*Entry, error) {
	return s.entries.GetByName(ctx, KindAccessStatus, name)
}

// -- Age segments --

func (s *Service) validateSegment(ctx context.Context, seg *AgeSegment) error {
	if seg.Name == "" {
		return fmt.Errorf("name is required")
	}
	if seg.MinAge >= seg.MaxAge {
		return fmt.Errorf("min_age must be less than max_age")
	}
	overlapping, err := s.segments.Overlapping(ctx, seg.MinAge, seg.MaxAge, seg.ID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		names := make([]string, 0, len(overlapping))
		for _, o := range overlapping {
			names = append(names, fmt.Sprintf("%s [%d,%d)", o.Name, o.MinAge, o.MaxAge))
		}
		return fmt.Errorf("age range overlaps existing segment(s): %s", strings.Join(names, ", "))
	}
	return nil
}

func (s *Service) CreateSegment(ctx context.Context, seg *AgeSegment) error {
	if err := s.validateSegment(ctx, seg); err != nil {
		return err
	}
	return s.segments.Create(ctx, seg)
}

func (s *Service) GetSegment(ctx context.Context, id uuid.UUID) (*AgeSegment, error) {
	return s.segments.GetByID(ctx, id)
}

func (s *Service) UpdateSegment(ctx context.Context, seg *AgeSegment) error {
	if err := s.validateSegment(ctx, seg); err != nil {
		return err
	}
	return s.segments.Update(ctx, seg)
}

func (s *Service) DeleteSegment(ctx context.Context, id uuid.UUID) error {
	return s.segments.Delete(ctx, id)
}

func (s *Service) ListSegments(ctx context.Context) ([]*AgeSegment, error) {
	return s.segments.List(ctx)
}

// SegmentForAge returns the segment whose half-open range contains age.
// No matching segment is a valid outcome and yields nil, not an error.
func (s *Service) SegmentForAge(ctx context.Context, age int) (*AgeSegment, error) {
	return s.segments.ForAge(ctx, age)
}
