package product

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("product not found")

// Product is an offering of the club (a class, a program, a plan). The
// association sets scope who it is for: the age segments it serves, the
// medical conditions it accommodates, and the members enrolled in it.
type Product struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	AgeSegmentIDs       []uuid.UUID `db:"-" json:"age_segment_ids"`
	MedicalConditionIDs []uuid.UUID `db:"-" json:"medical_condition_ids"`
	MemberIDs           []uuid.UUID `db:"-" json:"member_ids"`
}
