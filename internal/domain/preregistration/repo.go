package preregistration

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Preregister) error
	GetByID(ctx context.Context, id uuid.UUID) (*Preregister, error)
	GetByFolio(ctx context.Context, folio string) (*Preregister, error)
	List(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Preregister, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status ApprovalStatus) error
	// MarkDone sets the terminal DONE status and links the produced member.
	MarkDone(ctx context.Context, id, memberID uuid.UUID) error
	// CancelPendingSiblings cancels every PENDING preregistration with the
	// given CURP except the one identified by id, returning how many it hit.
	CancelPendingSiblings(ctx context.Context, curp string, id uuid.UUID) (int, error)

	ReplaceConditions(ctx context.Context, preregisterID uuid.UUID, conditionIDs []uuid.UUID) error
	ConditionIDs(ctx context.Context, preregisterID uuid.UUID) ([]uuid.UUID, error)

	CreateContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context, preregisterID uuid.UUID) ([]*Contact, error)
}
