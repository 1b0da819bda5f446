package member

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubcrm/clubcrm/internal/platform/db"
)

type Service struct {
	members  Repository
	contacts ContactRepository
	log      AccessLogRepository
	tx       db.TxRunner

	// initialStatusID is the access status stamped on every new member's
	// first ledger entry. It is resolved once at startup from the
	// configured status name; creation fails outright when it is unset.
	initialStatusID uuid.UUID
}

func NewService(members Repository, contacts ContactRepository, log AccessLogRepository, tx db.TxRunner, initialStatusID uuid.UUID) *Service {
	return &Service{
		members:         members,
		contacts:        contacts,
		log:             log,
		tx:              tx,
		initialStatusID: initialStatusID,
	}
}

// Create materializes a new member in a single transaction: demographic row,
// medical-condition set, contacts, and the initial access log entry. If any
// step fails nothing survives — a member never exists without its first
// ledger entry.
func (s *Service) Create(ctx context.Context, m *Member, contacts []*Contact, changedBy *string) error {
	if err := m.Person.Validate(); err != nil {
		return err
	}
	if s.initialStatusID == uuid.Nil {
		return fmt.Errorf("initial access status is not configured")
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if m.MemberCode == "" {
			code, err := s.members.NextMemberCode(ctx)
			if err != nil {
				return fmt.Errorf("allocate member code: %w", err)
			}
			m.MemberCode = code
		}
		if err := s.members.Create(ctx, m); err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		if err := s.members.ReplaceConditions(ctx, m.ID, m.MedicalConditionIDs); err != nil {
			return fmt.Errorf("assign medical conditions: %w", err)
		}
		for _, c := range contacts {
			c.MemberID = m.ID
			if err := s.contacts.Create(ctx, c); err != nil {
				return fmt.Errorf("create contact %q: %w", c.Name, err)
			}
		}
		entry := &AccessLogEntry{
			MemberID:  m.ID,
			StatusID:  s.initialStatusID,
			Reason:    InitialStatusReason,
			ChangedBy: changedBy,
		}
		if err := s.log.Append(ctx, entry); err != nil {
			return fmt.Errorf("append initial status: %w", err)
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.MedicalConditionIDs, err = s.members.ConditionIDs(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Member, error) {
	return s.members.GetByCode(ctx, code)
}

func (s *Service) GetByCURP(ctx context.Context, curp string) (*Member, error) {
	return s.members.GetByCURP(ctx, curp)
}

func (s *Service) ExistsByCURP(ctx context.Context, curp string) (bool, error) {
	return s.members.ExistsByCURP(ctx, curp)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	return s.members.List(ctx, limit, offset)
}

// Update changes demographic fields and the condition set. Member code and
// CURP are fixed at creation; the ledger is untouched.
func (s *Service) Update(ctx context.Context, m *Member) error {
	if err := m.Person.Validate(); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.members.Update(ctx, m); err != nil {
			return err
		}
		return s.members.ReplaceConditions(ctx, m.ID, m.MedicalConditionIDs)
	})
}

// -- Contacts --

func (s *Service) AddContact(ctx context.Context, memberID uuid.UUID, c *Contact) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.PhoneNumber == "" {
		return fmt.Errorf("phone_number is required")
	}
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return err
	}
	c.MemberID = memberID
	return s.contacts.Create(ctx, c)
}

func (s *Service) ListContacts(ctx context.Context, memberID uuid.UUID) ([]*Contact, error) {
	return s.contacts.ListByMember(ctx, memberID)
}

func (s *Service) UpdateContact(ctx context.Context, c *Contact) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.contacts.Update(ctx, c)
}

func (s *Service) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return s.contacts.Delete(ctx, id)
}

// ReplaceContacts swaps a member's whole roster, used by the CSV import.
func (s *Service) ReplaceContacts(ctx context.Context, memberID uuid.UUID, contacts []*Contact) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.contacts.DeleteByMember(ctx, memberID); err != nil {
			return err
		}
		for _, c := range contacts {
			c.MemberID = memberID
			if err := s.contacts.Create(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// -- Status ledger --

// AppendStatus records a status transition. Entries are never modified
// afterwards.
func (s *Service) AppendStatus(ctx context.Context, memberID, statusID uuid.UUID, reason string, changedBy *string) (*AccessLogEntry, error) {
	if statusID == uuid.Nil {
		return nil, fmt.Errorf("status_id is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	entry := &AccessLogEntry{
		MemberID:  memberID,
		StatusID:  statusID,
		Reason:    reason,
		ChangedBy: changedBy,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CurrentStatus returns the status of the member's latest ledger entry, or
// uuid.Nil when the member has no entries.
func (s *Service) CurrentStatus(ctx context.Context, memberID uuid.UUID) (uuid.UUID, error) {
	entry, err := s.log.Latest(ctx, memberID)
	if err != nil {
		return uuid.Nil, err
	}
	if entry == nil {
		return uuid.Nil, nil
	}
	return entry.StatusID, nil
}

func (s *Service) StatusLog(ctx context.Context, memberID uuid.UUID) ([]*AccessLogEntry, error) {
	return s.log.ListByMember(ctx, memberID)
}
