package product

import (
	"context"

	"github.com/google/uuid"
)

// Association names the three link tables a product maintains.
type Association string

const (
	AssocAgeSegments       Association = "age_segments"
	AssocMedicalConditions Association = "medical_conditions"
	AssocMembers           Association = "members"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Product, int, error)

	ReplaceLinks(ctx context.Context, productID uuid.UUID, assoc Association, ids []uuid.UUID) error
	LinkIDs(ctx context.Context, productID uuid.UUID, assoc Association) ([]uuid.UUID, error)
}
