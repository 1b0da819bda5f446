// Package conversion turns pending preregistrations into members. Each item
// is processed in its own transaction: one bad application never blocks the
// rest of the batch.
package conversion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clubcrm/clubcrm/internal/domain/member"
	"github.com/clubcrm/clubcrm/internal/domain/preregistration"
	"github.com/clubcrm/clubcrm/internal/platform/db"
)

// ItemError records why one batch item failed.
type ItemError struct {
	Item    uuid.UUID `json:"item"`
	Message string    `json:"message"`
}

// Summary is the complete outcome of a batch. It is always returned, even
// when every item failed.
type Summary struct {
	Converted int         `json:"converted"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

type Engine struct {
	preregs preregistration.Repository
	members *member.Service
	tx      db.TxRunner
	log     zerolog.Logger
}

func NewEngine(preregs preregistration.Repository, members *member.Service, tx db.TxRunner, log zerolog.Logger) *Engine {
	return &Engine{preregs: preregs, members: members, tx: tx, log: log}
}

// Convert processes the given preregistrations. Non-PENDING items and items
// whose CURP already belongs to a member are skipped; a failure rolls back
// only its own item.
func (e *Engine) Convert(ctx context.Context, ids []uuid.UUID, operator *string) Summary {
	var summary Summary
	for _, id := range ids {
		switch err := e.convertOne(ctx, id, operator); {
		case err == nil:
			summary.Converted++
		case err == errSkip:
			summary.Skipped++
		default:
			summary.Failed++
			summary.Errors = append(summary.Errors, ItemError{Item: id, Message: err.Error()})
			e.log.Warn().Err(err).Str("preregistration_id", id.String()).Msg("conversion failed")
		}
	}
	e.log.Info().
		Int("converted", summary.Converted).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("conversion batch finished")
	return summary
}

// errSkip marks an item the batch passes over without treating it as a failure.
var errSkip = fmt.Errorf("skipped")

func (e *Engine) convertOne(ctx context.Context, id uuid.UUID, operator *string) error {
	p, err := e.preregs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load preregistration: %w", err)
	}
	if p.ApprovalStatus != preregistration.StatusPending {
		return errSkip
	}

	exists, err := e.members.ExistsByCURP(ctx, p.CURP)
	if err != nil {
		return fmt.Errorf("check existing member: %w", err)
	}
	if exists {
		return errSkip
	}

	return e.tx.WithTx(ctx, func(ctx context.Context) error {
		conditionIDs, err := e.preregs.ConditionIDs(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("load conditions: %w", err)
		}
		contacts, err := e.preregs.ListContacts(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("load contacts: %w", err)
		}

		m := &member.Member{Person: p.Person}
		m.MedicalConditionIDs = conditionIDs
		memberContacts := make([]*member.Contact, 0, len(contacts))
		for _, c := range contacts {
			memberContacts = append(memberContacts, &member.Contact{
				Name:        c.Name,
				PhoneNumber: c.PhoneNumber,
				RelationID:  c.RelationID,
				IsPrimary:   c.IsPrimary,
				IsEmergency: c.IsEmergency,
			})
		}

		if err := e.members.Create(ctx, m, memberContacts, operator); err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		if err := e.preregs.MarkDone(ctx, p.ID, m.ID); err != nil {
			return fmt.Errorf("mark preregistration done: %w", err)
		}
		if _, err := e.preregs.CancelPendingSiblings(ctx, p.CURP, p.ID); err != nil {
			return fmt.Errorf("cancel duplicate preregistrations: %w", err)
		}
		return nil
	})
}
