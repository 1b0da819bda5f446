package registry

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the name-only reference registries. The core reads
// these tables and never mutates them; get-or-create is used only by the
// import tooling.
type Kind string

const (
	KindAccessStatus     Kind = "access_status"
	KindMedicalCondition Kind = "medical_condition"
	KindDiscoverySource  Kind = "discovery_source"
	KindContactRelation  Kind = "contact_relation"
)

// Kinds lists every name-only registry kind.
func Kinds() []Kind {
	return []Kind{KindAccessStatus, KindMedicalCondition, KindDiscoverySource, KindContactRelation}
}

// Entry is one row of a name-only registry.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AgeSegment is a non-overlapping half-open age range [MinAge, MaxAge).
type AgeSegment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	MinAge    int       `db:"min_age" json:"min_age"`
	MaxAge    int       `db:"max_age" json:"max_age"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contains reports whether age falls inside the segment. The upper bound is
// exclusive: a person whose age equals MaxAge belongs to the next segment.
func (s *AgeSegment) Contains(age int) bool {
	return age >= s.MinAge && age < s.MaxAge
}

// Overlaps reports whether two segments' ranges intersect.
func (s *AgeSegment) Overlaps(other *AgeSegment) bool {
	return s.MinAge < other.MaxAge && s.MaxAge > other.MinAge
}
