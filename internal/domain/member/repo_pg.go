package member

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubcrm/clubcrm/internal/platform/db"
)

// =========== Member Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const memberCols = `id, member_code, name, curp, birth_date, gender, phone_number, email,
	photo_path, discovery_source_id, discovery_details,
	has_illness, has_allergy, has_flat_feet, has_heart_conditions, medical_condition_details,
	enrollment_date, created_at, updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.MemberCode, &m.Name, &m.CURP, &m.BirthDate, &m.Gender, &m.PhoneNumber, &m.Email,
		&m.PhotoPath, &m.DiscoverySourceID, &m.DiscoveryDetails,
		&m.HasIllness, &m.HasAllergy, &m.HasFlatFeet, &m.HasHeartConditions, &m.MedicalConditionDetails,
		&m.EnrollmentDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	var enrollment *time.Time
	if !m.EnrollmentDate.IsZero() {
		enrollment = &m.EnrollmentDate
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO member (id, member_code, name, curp, birth_date, gender, phone_number, email,
			photo_path, discovery_source_id, discovery_details,
			has_illness, has_allergy, has_flat_feet, has_heart_conditions, medical_condition_details,
			enrollment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,COALESCE($17, now()))`,
		m.ID, m.MemberCode, m.Name, m.CURP, m.BirthDate, m.Gender, m.PhoneNumber, m.Email,
		m.PhotoPath, m.DiscoverySourceID, m.DiscoveryDetails,
		m.HasIllness, m.HasAllergy, m.HasFlatFeet, m.HasHeartConditions, m.MedicalConditionDetails,
		enrollment)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM member WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Member, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM member WHERE member_code = $1`, code))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *repoPG) GetByCURP(ctx context.Context, curp string) (*Member, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM member WHERE curp = $1`, curp))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *repoPG) ExistsByCURP(ctx context.Context, curp string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM member WHERE curp = $1)`, curp).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, m *Member) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE member SET name=$2, birth_date=$3, gender=$4, phone_number=$5, email=$6,
			photo_path=$7, discovery_source_id=$8, discovery_details=$9,
			has_illness=$10, has_allergy=$11, has_flat_feet=$12, has_heart_conditions=$13,
			medical_condition_details=$14, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.BirthDate, m.Gender, m.PhoneNumber, m.Email,
		m.PhotoPath, m.DiscoverySourceID, m.DiscoveryDetails,
		m.HasIllness, m.HasAllergy, m.HasFlatFeet, m.HasHeartConditions,
		m.MedicalConditionDetails)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM member`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+memberCols+` FROM member ORDER BY member_code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

// NextMemberCode reads every numeric code at or above the floor with the
// rows locked, then gap-fills in memory. FOR UPDATE serializes concurrent
// allocations that see the same snapshot; the unique index on member_code
// backstops anything that slips through.
func (r *repoPG) NextMemberCode(ctx context.Context) (string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT member_code FROM member
		WHERE member_code ~ '^\d+$' AND member_code::bigint >= $1
		ORDER BY member_code::bigint
		FOR UPDATE`, CodeFloor)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var existing []int
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return "", err
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		existing = append(existing, n)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return NextCode(existing), nil
}

func (r *repoPG) ReplaceConditions(ctx context.Context, memberID uuid.UUID, conditionIDs []uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM member_medical_condition WHERE member_id = $1`, memberID); err != nil {
		return err
	}
	for _, conditionID := range conditionIDs {
		if _, err := r.conn(ctx).Exec(ctx,
			`INSERT INTO member_medical_condition (member_id, condition_id) VALUES ($1, $2)`,
			memberID, conditionID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ConditionIDs(ctx context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT condition_id FROM member_medical_condition WHERE member_id = $1`, memberID)
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

// =========== Contact Repository ===========

type contactRepoPG struct{ pool *pgxpool.Pool }

func NewContactRepoPG(pool *pgxpool.Pool) ContactRepository { return &contactRepoPG{pool: pool} }

func (r *contactRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const contactCols = `id, member_id, name, phone_number, relation_id, is_primary, is_emergency, created_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.MemberID, &c.Name, &c.PhoneNumber, &c.RelationID, &c.IsPrimary, &c.IsEmergency, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepoPG) Create(ctx context.Context, c *Contact) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO member_contact (id, member_id, name, phone_number, relation_id, is_primary, is_emergency)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.MemberID, c.Name, c.PhoneNumber, c.RelationID, c.IsPrimary, c.IsEmergency)
	return err
}

func (r *contactRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Contact, error) {
	c, err := scanContact(r.conn(ctx).QueryRow(ctx,
		`SELECT `+contactCols+` FROM member_contact WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *contactRepoPG) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+contactCols+` FROM member_contact WHERE member_id = $1 ORDER BY created_at`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var contacts []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *contactRepoPG) Update(ctx context.Context, c *Contact) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE member_contact SET name=$2, phone_number=$3, relation_id=$4, is_primary=$5, is_emergency=$6
		WHERE id = $1`,
		c.ID, c.Name, c.PhoneNumber, c.RelationID, c.IsPrimary, c.IsEmergency)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contactRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM member_contact WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contactRepoPG) DeleteByMember(ctx context.Context, memberID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM member_contact WHERE member_id = $1`, memberID)
	return err
}

// =========== Access Log Repository ===========

type accessLogRepoPG struct{ pool *pgxpool.Pool }

func NewAccessLogRepoPG(pool *pgxpool.Pool) AccessLogRepository { return &accessLogRepoPG{pool: pool} }

func (r *accessLogRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const logCols = `id, seq, member_id, status_id, reason, changed_by, created_at`

func scanLogEntry(row pgx.Row) (*AccessLogEntry, error) {
	var e AccessLogEntry
	err := row.Scan(&e.ID, &e.Seq, &e.MemberID, &e.StatusID, &e.Reason, &e.ChangedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *accessLogRepoPG) Append(ctx context.Context, e *AccessLogEntry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO member_access_log (id, member_id, status_id, reason, changed_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING seq, created_at`,
		e.ID, e.MemberID, e.StatusID, e.Reason, e.ChangedBy).Scan(&e.Seq, &e.CreatedAt)
}

func (r *accessLogRepoPG) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*AccessLogEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+logCols+` FROM member_access_log WHERE member_id = $1 ORDER BY seq DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*AccessLogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *accessLogRepoPG) Latest(ctx context.Context, memberID uuid.UUID) (*AccessLogEntry, error) {
	e, err := scanLogEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+logCols+` FROM member_access_log
		WHERE member_id = $1
		ORDER BY seq DESC
		LIMIT 1`, memberID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}
