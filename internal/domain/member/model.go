package member

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clubcrm/clubcrm/internal/domain/person"
)

// ErrNotFound is returned when a member does not exist.
var ErrNotFound = errors.New("member not found")

// ErrImmutableEntry is returned for any attempt to change or delete an
// access log entry. The log is append-only; the database enforces the same
// rule with a trigger as a last resort.
var ErrImmutableEntry = errors.New("access log entries are append-only")

// InitialStatusReason is the reason recorded on the ledger entry created
// together with a new member.
const InitialStatusReason = "new member"

// CodeFloor is the lowest member code the allocator hands out.
const CodeFloor = 5000

// Member maps to the member table. Demographics are shared with
// preregistrations through the embedded person.Person.
type Member struct {
	ID             uuid.UUID `db:"id" json:"id"`
	MemberCode     string    `db:"member_code" json:"member_code"`
	person.Person
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// MedicalConditionIDs carries the member's condition set across the
	// API boundary; it is stored in a join table, not a column.
	MedicalConditionIDs []uuid.UUID `db:"-" json:"medical_condition_ids,omitempty"`
}

// Contact maps to the member_contact table. A contact is owned by exactly
// one member and disappears with it. The primary/emergency flags are
// independent booleans; no cardinality is enforced.
type Contact struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	MemberID    uuid.UUID  `db:"member_id" json:"member_id"`
	Name        string     `db:"name" json:"name"`
	PhoneNumber string     `db:"phone_number" json:"phone_number"`
	RelationID  *uuid.UUID `db:"relation_id" json:"relation_id,omitempty"`
	IsPrimary   bool       `db:"is_primary" json:"is_primary"`
	IsEmergency bool       `db:"is_emergency" json:"is_emergency"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AccessLogEntry maps to the member_access_log table. One row per status
// transition; rows are never updated or deleted. A member's current status
// is the status of the latest entry; Seq breaks timestamp ties by insertion
// order.
type AccessLogEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Seq       int64     `db:"seq" json:"seq"`
	MemberID  uuid.UUID `db:"member_id" json:"member_id"`
	StatusID  uuid.UUID `db:"status_id" json:"status_id"`
	Reason    string    `db:"reason" json:"reason"`
	ChangedBy *string   `db:"changed_by" json:"changed_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
