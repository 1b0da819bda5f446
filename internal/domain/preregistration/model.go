package preregistration

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubcrm/clubcrm/internal/domain/person"
)

var ErrNotFound = errors.New("preregistration not found")

// ApprovalStatus tracks a preregistration through its lifecycle. DONE and
// CANCELED are terminal.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusDone     ApprovalStatus = "DONE"
	StatusCanceled ApprovalStatus = "CANCELED"
)

func (s ApprovalStatus) Terminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// Preregister is a membership application submitted through the public form.
// The folio is assigned exactly once, at first save, and never changes.
type Preregister struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Folio string    `db:"folio" json:"folio"`
	person.Person
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	MemberID       *uuid.UUID     `db:"member_id" json:"member_id,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	ConditionIDs []uuid.UUID `db:"-" json:"medical_condition_ids"`
	Contacts     []*Contact  `db:"-" json:"contacts,omitempty"`
}

// Contact is a contact block captured with the application. The submission
// form collects exactly two: a main contact and an emergency contact.
type Contact struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PreregisterID uuid.UUID  `db:"preregister_id" json:"preregister_id"`
	Name          string     `db:"name" json:"name"`
	PhoneNumber   string     `db:"phone_number" json:"phone_number"`
	RelationID    *uuid.UUID `db:"relation_id" json:"relation_id,omitempty"`
	IsPrimary     bool       `db:"is_primary" json:"is_primary"`
	IsEmergency   bool       `db:"is_emergency" json:"is_emergency"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// NewFolio builds a folio like PR-1A2B3C4D.
func NewFolio() string {
	id := uuid.New()
	return "PR-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}
