package preregistration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubcrm/clubcrm/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const preregCols = `id, folio, name, curp, birth_date, gender, phone_number, email,
	photo_path, discovery_source_id, discovery_details,
	has_illness, has_allergy, has_flat_feet, has_heart_conditions, medical_condition_details,
	approval_status, member_id, created_at, updated_at`

func scanPrereg(row pgx.Row) (*Preregister, error) {
	var p Preregister
	err := row.Scan(&p.ID, &p.Folio, &p.Name, &p.CURP, &p.BirthDate, &p.Gender, &p.PhoneNumber, &p.Email,
		&p.PhotoPath, &p.DiscoverySourceID, &p.DiscoveryDetails,
		&p.HasIllness, &p.HasAllergy, &p.HasFlatFeet, &p.HasHeartConditions, &p.MedicalConditionDetails,
		&p.ApprovalStatus, &p.MemberID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Preregister) error {
	p.ID = uuid.New()
	if p.Folio == "" {
		p.Folio = NewFolio()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO preregister (id, folio, name, curp, birth_date, gender, phone_number, email,
			photo_path, discovery_source_id, discovery_details,
			has_illness, has_allergy, has_flat_feet, has_heart_conditions, medical_condition_details,
			approval_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		p.ID, p.Folio, p.Name, p.CURP, p.BirthDate, p.Gender, p.PhoneNumber, p.Email,
		p.PhotoPath, p.DiscoverySourceID, p.DiscoveryDetails,
		p.HasIllness, p.HasAllergy, p.HasFlatFeet, p.HasHeartConditions, p.MedicalConditionDetails,
		p.ApprovalStatus)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Preregister, error) {
	p, err := scanPrereg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+preregCols+` FROM preregister WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) GetByFolio(ctx context.Context, folio string) (*Preregister, error) {
	p, err := scanPrereg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+preregCols+` FROM preregister WHERE folio = $1`, folio))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) List(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Preregister, int, error) {
	where := ``
	args := []any{limit, offset}
	if status != "" {
		where = ` WHERE approval_status = $3`
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM preregister`
	if status != "" {
		if err := r.conn(ctx).QueryRow(ctx, countQuery+` WHERE approval_status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.conn(ctx).QueryRow(ctx, countQuery).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+preregCols+` FROM preregister`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Preregister
	for rows.Next() {
		p, err := scanPrereg(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status ApprovalStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE preregister SET approval_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) MarkDone(ctx context.Context, id, memberID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE preregister SET approval_status = $2, member_id = $3, updated_at = now()
		WHERE id = $1`, id, StatusDone, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CancelPendingSiblings(ctx context.Context, curp string, id uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE preregister SET approval_status = $3, updated_at = now()
		WHERE curp = $1 AND approval_status = $4 AND id <> $2`,
		curp, id, StatusCanceled, StatusPending)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) ReplaceConditions(ctx context.Context, preregisterID uuid.UUID, conditionIDs []uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx,
		`DELETE FROM preregister_medical_condition WHERE preregister_id = $1`, preregisterID); err != nil {
		return err
	}
	for _, conditionID := range conditionIDs {
		if _, err := q.Exec(ctx, `
			INSERT INTO preregister_medical_condition (preregister_id, medical_condition_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, preregisterID, conditionID); err != nil {
			return fmt.Errorf("link condition %s: %w", conditionID, err)
		}
	}
	return nil
}

func (r *repoPG) ConditionIDs(ctx context.Context, preregisterID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT medical_condition_id FROM preregister_medical_condition WHERE preregister_id = $1`,
		preregisterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repoPG) CreateContact(ctx context.Context, c *Contact) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO preregister_contact (id, preregister_id, name, phone_number, relation_id, is_primary, is_emergency)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.PreregisterID, c.Name, c.PhoneNumber, c.RelationID, c.IsPrimary, c.IsEmergency)
	return err
}

func (r *repoPG) ListContacts(ctx context.Context, preregisterID uuid.UUID) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, preregister_id, name, phone_number, relation_id, is_primary, is_emergency, created_at
		FROM preregister_contact WHERE preregister_id = $1 ORDER BY is_primary DESC, created_at`,
		preregisterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.PreregisterID, &c.Name, &c.PhoneNumber, &c.RelationID,
			&c.IsPrimary, &c.IsEmergency, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}
