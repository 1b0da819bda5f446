package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubcrm/clubcrm/internal/platform/db"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) validate(p *Product) error {
	if p.Code == "" {
		return fmt.Errorf("code is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("product code %q is already in use", p.Code)
			}
			return err
		}
		return s.replaceAllLinks(ctx, p)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

func (s *Service) load(ctx context.Context, p *Product) (*Product, error) {
	var err error
	if p.AgeSegmentIDs, err = s.repo.LinkIDs(ctx, p.ID, AssocAgeSegments); err != nil {
		return nil, err
	}
	if p.MedicalConditionIDs, err = s.repo.LinkIDs(ctx, p.ID, AssocMedicalConditions); err != nil {
		return nil, err
	}
	if p.MemberIDs, err = s.repo.LinkIDs(ctx, p.ID, AssocMembers); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("product code %q is already in use", p.Code)
			}
			return err
		}
		return s.replaceAllLinks(ctx, p)
	})
}

func (s *Service) replaceAllLinks(ctx context.Context, p *Product) error {
	for assoc, ids := range map[Association][]uuid.UUID{
		AssocAgeSegments:       p.AgeSegmentIDs,
		AssocMedicalConditions: p.MedicalConditionIDs,
		AssocMembers:           p.MemberIDs,
	} {
		if err := s.repo.ReplaceLinks(ctx, p.ID, assoc, ids); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Product, int, error) {
	return s.repo.List(ctx, limit, offset)
}
