package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubcrm/clubcrm/internal/platform/db"
)

// kindTables whitelists the table name for each registry kind; kinds never
// reach SQL text unchecked.
var kindTables = map[Kind]string{
	KindAccessStatus:     "access_status",
	KindMedicalCondition: "medical_condition",
	KindDiscoverySource:  "discovery_source",
	KindContactRelation:  "contact_relation",
}

func tableFor(kind Kind) (string, error) {
	table, ok := kindTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown registry kind %q", kind)
	}
	return table, nil
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository { return &entryRepoPG{pool: pool} }

func (r *entryRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepoPG) Create(ctx context.Context, kind Kind, e *Entry) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	e.ID = uuid.New()
	_, err = r.conn(ctx).Exec(ctx,
		`INSERT INTO `+table+` (id, name) VALUES ($1, $2)`, e.ID, e.Name)
	return err
}

func (r *entryRepoPG) GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM `+table+` WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *entryRepoPG) GetByName(ctx context.Context, kind Kind, name string) (*Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM `+table+` WHERE name = $1`, name))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *entryRepoPG) GetOrCreate(ctx context.Context, kind Kind, name string) (*Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	// Safe under the table's unique name constraint: a concurrent insert
	// makes ON CONFLICT fall through to the row that won.
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO `+table+` (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
			RETURNING id, name, created_at
		)
		SELECT id, name, created_at FROM ins
		UNION ALL
		SELECT id, name, created_at FROM `+table+` WHERE name = $2
		LIMIT 1`, uuid.New(), name))
	if err != nil {
		return nil, fmt.Errorf("get or create %s %q: %w", kind, name, err)
	}
	return e, nil
}

func (r *entryRepoPG) Update(ctx context.Context, kind Kind, e *Entry) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE `+table+` SET name = $2 WHERE id = $1`, e.ID, e.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *entryRepoPG) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *entryRepoPG) List(ctx context.Context, kind Kind) ([]*Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, created_at FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =========== Age Segment Repository ===========

type segmentRepoPG struct{ pool *pgxpool.Pool }

func NewSegmentRepoPG(pool *pgxpool.Pool) SegmentRepository { return &segmentRepoPG{pool: pool} }

func (r *segmentRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const segmentCols = `id, name, min_age, max_age, created_at`

func scanSegment(row pgx.Row) (*AgeSegment, error) {
	var s AgeSegment
	if err := row.Scan(&s.ID, &s.Name, &s.MinAge, &s.MaxAge, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *segmentRepoPG) Create(ctx context.Context, s *AgeSegment) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO age_segment (id, name, min_age, max_age) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.MinAge, s.MaxAge)
	return err
}

func (r *segmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AgeSegment, error) {
	s, err := scanSegment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+segmentCols+` FROM age_segment WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *segmentRepoPG) Update(ctx context.Context, s *AgeSegment) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE age_segment SET name = $2, min_age = $3, max_age = $4 WHERE id = $1`,
		s.ID, s.Name, s.MinAge, s.MaxAge)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *segmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM age_segment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *segmentRepoPG) List(ctx context.Context) ([]*AgeSegment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+segmentCols+` FROM age_segment ORDER BY min_age`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var segments []*AgeSegment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *segmentRepoPG) Overlapping(ctx context.Context, minAge, maxAge int, excludeID uuid.UUID) ([]*AgeSegment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+segmentCols+` FROM age_segment
		 WHERE min_age < $2 AND max_age > $1 AND id <> $3 ORDER BY min_age`,
		minAge, maxAge, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var segments []*AgeSegment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *segmentRepoPG) ForAge(ctx context.Context, age int) (*AgeSegment, error) {
	s, err := scanSegment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+segmentCols+` FROM age_segment WHERE min_age <= $1 AND max_age > $1`, age))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}
