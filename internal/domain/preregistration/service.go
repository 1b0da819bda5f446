package preregistration

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubcrm/clubcrm/internal/domain/person"
	"github.com/clubcrm/clubcrm/internal/domain/registry"
	"github.com/clubcrm/clubcrm/internal/platform/db"
)

// Condition names with special submission rules.
const (
	ConditionNone  = "None"
	ConditionOther = "Other"
)

// ConditionResolver resolves medical-condition registry entries by id.
// *registry.Service satisfies it.
type ConditionResolver interface {
	GetEntry(ctx context.Context, kind registry.Kind, id uuid.UUID) (*registry.Entry, error)
}

type Service struct {
	repo       Repository
	conditions ConditionResolver
	tx         db.TxRunner
}

func NewService(repo Repository, conditions ConditionResolver, tx db.TxRunner) *Service {
	return &Service{repo: repo, conditions: conditions, tx: tx}
}

// Submit validates and persists a public application. The caller provides the
// two contact blocks the form collects; on success the preregistration is
// PENDING and carries its folio.
func (s *Service) Submit(ctx context.Context, p *Preregister, main, emergency *Contact) error {
	verr := &person.ValidationError{}
	if pv := p.Person.Validate(); pv != nil {
		if ve, ok := person.AsValidationError(pv); ok {
			verr.Fields = append(verr.Fields, ve.Fields...)
		} else {
			return pv
		}
	}

	if err := s.checkConditions(ctx, p, verr); err != nil {
		return err
	}
	checkContact(verr, "main_contact", main)
	checkContact(verr, "emergency_contact", emergency)

	if verr.HasErrors() {
		return verr
	}

	p.ApprovalStatus = StatusPending
	p.MemberID = nil
	main.IsPrimary = true
	emergency.IsEmergency = true

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("an application with CURP %s is already registered", p.CURP)
			}
			return fmt.Errorf("create preregistration: %w", err)
		}
		if err := s.repo.ReplaceConditions(ctx, p.ID, p.ConditionIDs); err != nil {
			return fmt.Errorf("link conditions: %w", err)
		}
		for _, c := range []*Contact{main, emergency} {
			c.PreregisterID = p.ID
			if err := s.repo.CreateContact(ctx, c); err != nil {
				return fmt.Errorf("create contact: %w", err)
			}
		}
		p.Contacts = []*Contact{main, emergency}
		return nil
	})
}

// checkConditions applies the selection rules: at least one condition, "None"
// stands alone, and "Other" requires detail text.
func (s *Service) checkConditions(ctx context.Context, p *Preregister, verr *person.ValidationError) error {
	if len(p.ConditionIDs) == 0 {
		verr.Add("medical_conditions", "select at least one medical condition, or choose 'None'")
		return nil
	}

	var hasNone, hasOther bool
	for _, id := range p.ConditionIDs {
		entry, err := s.conditions.GetEntry(ctx, registry.KindMedicalCondition, id)
		if err == registry.ErrNotFound {
			verr.Add("medical_conditions", fmt.Sprintf("unknown medical condition %s", id))
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve condition %s: %w", id, err)
		}
		switch entry.Name {
		case ConditionNone:
			hasNone = true
		case ConditionOther:
			hasOther = true
		}
	}

	if hasNone && len(p.ConditionIDs) > 1 {
		verr.Add("medical_conditions", "'None' cannot be combined with other medical conditions")
	}
	if hasOther && (p.MedicalConditionDetails == nil || *p.MedicalConditionDetails == "") {
		verr.Add("medical_condition_details", "details are required when 'Other' is selected")
	}
	return nil
}

func checkContact(verr *person.ValidationError, field string, c *Contact) {
	if c == nil {
		verr.Add(field, "contact is required")
		return
	}
	if c.Name == "" {
		verr.Add(field, "contact name is required")
	}
	if !person.ValidPhone(c.PhoneNumber) {
		verr.Add(field, "contact phone must be 10 to 15 digits")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Preregister, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

func (s *Service) GetByFolio(ctx context.Context, folio string) (*Preregister, error) {
	p, err := s.repo.GetByFolio(ctx, folio)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

func (s *Service) load(ctx context.Context, p *Preregister) (*Preregister, error) {
	ids, err := s.repo.ConditionIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.ConditionIDs = ids
	contacts, err := s.repo.ListContacts(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Contacts = contacts
	return p, nil
}

func (s *Service) List(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Preregister, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Cancel moves a PENDING preregistration to CANCELED. Terminal states are
// final: canceling a DONE or CANCELED application is an error.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Preregister, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ApprovalStatus.Terminal() {
		return nil, fmt.Errorf("preregistration %s is already %s", p.Folio, p.ApprovalStatus)
	}
	if err := s.repo.SetStatus(ctx, id, StatusCanceled); err != nil {
		return nil, err
	}
	p.ApprovalStatus = StatusCanceled
	return p, nil
}
