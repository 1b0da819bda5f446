package member

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	GetByCode(ctx context.Context, code string) (*Member, error)
	GetByCURP(ctx context.Context, curp string) (*Member, error)
	ExistsByCURP(ctx context.Context, curp string) (bool, error)
	Update(ctx context.Context, m *Member) error
	List(ctx context.Context, limit, offset int) ([]*Member, int, error)
	// NextMemberCode computes the next gap-filled code. It must be called
	// inside a transaction; the implementation locks the code range so
	// concurrent allocations serialize.
	NextMemberCode(ctx context.Context) (string, error)
	ReplaceConditions(ctx context.Context, memberID uuid.UUID, conditionIDs []uuid.UUID) error
	ConditionIDs(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error)
}

type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Contact, error)
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByMember(ctx context.Context, memberID uuid.UUID) error
}

// AccessLogRepository deliberately has no update or delete: the ledger is
// append-only at the data layer.
type AccessLogRepository interface {
	Append(ctx context.Context, e *AccessLogEntry) error
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*AccessLogEntry, error)
	// Latest returns the most recent entry, or nil when none exist.
	Latest(ctx context.Context, memberID uuid.UUID) (*AccessLogEntry, error)
}
