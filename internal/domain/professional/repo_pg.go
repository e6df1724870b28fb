package professional

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const profCols = `id, name, specialty, active, availability, version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Professional, error) {
	var p Professional
	var raw []byte
	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.Active, &raw, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Availability, err = ParseAvailability(raw)
	if err != nil {
		return nil, fmt.Errorf("professional %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	raw, err := p.Availability.MarshalJSON()
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO professionals (id, name, specialty, active, availability)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING version_id, created_at, updated_at`,
		p.ID, p.Name, p.Specialty, p.Active, raw,
	).Scan(&p.VersionID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+profCols+` FROM professionals WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Professional) error {
	raw, err := p.Availability.MarshalJSON()
	if err != nil {
		return err
	}
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE professionals SET name=$2, specialty=$3, active=$4, availability=$5,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1
		RETURNING version_id, created_at, updated_at`,
		p.ID, p.Name, p.Specialty, p.Active, raw,
	).Scan(&p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error) {
	where := ` WHERE 1=1`
	if activeOnly {
		where += ` AND active = TRUE`
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM professionals`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+profCols+` FROM professionals`+where+` ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Professional
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
