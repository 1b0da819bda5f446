package product

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

// linkTables whitelists the association tables; each maps to (table, column).
var linkTables = map[Association][2]string{
	AssocAgeSegments:       {"product_age_segment", "age_segment_id"},
	AssocMedicalConditions: {"product_medical_condition", "medical_condition_id"},
	AssocMembers:           {"product_member", "member_id"},
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO product (id, code, name) VALUES ($1, $2, $3)`,
		p.ID, p.Code, p.Name)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.conn(ctx).QueryRow(ctx,
		`SELECT id, code, name, created_at, updated_at FROM product WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Product, error) {
	p, err := scanProduct(r.conn(ctx).QueryRow(ctx,
		`SELECT id, code, name, created_at, updated_at FROM product WHERE code = $1`, code))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) Update(ctx context.Context, p *Product) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE product SET code = $2, name = $3, updated_at = now() WHERE id = $1`,
		p.ID, p.Code, p.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM product WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Product, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM product`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, code, name, created_at, updated_at FROM product ORDER BY code LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repoPG) ReplaceLinks(ctx context.Context, productID uuid.UUID, assoc Association, ids []uuid.UUID) error {
	lt, ok := linkTables[assoc]
	if !ok {
		return fmt.Errorf("unknown association %q", assoc)
	}
	q := r.conn(ctx)
	if _, err := q.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1`, lt[0]), productID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := q.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (product_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			lt[0], lt[1]), productID, id); err != nil {
			return fmt.Errorf("link %s %s: %w", assoc, id, err)
		}
	}
	return nil
}

func (r *repoPG) LinkIDs(ctx context.Context, productID uuid.UUID, assoc Association) ([]uuid.UUID, error) {
	lt, ok := linkTables[assoc]
	if !ok {
		return nil, fmt.Errorf("unknown association %q", assoc)
	}
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE product_id = $1`, lt[1], lt[0]), productID)
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
