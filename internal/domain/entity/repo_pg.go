package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saluscare/negotiation-api/internal/platform/db"
	"github.com/saluscare/negotiation-api/pkg/workflow"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, kind, name, document, email, active, created_at, updated_at`

func scanEntity(row pgx.Row) (*Entity, error) {
	var e Entity
	err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.Document, &e.Email,
		&e.Active, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entity) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO entities (id, kind, name, document, email, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Kind, e.Name, e.Document, e.Email, e.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entity, error) {
	e, err := scanEntity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM entities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repoPG) Update(ctx context.Context, e *Entity) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE entities SET name = $2, document = $3, email = $4, active = $5,
			updated_at = now()
		WHERE id = $1`,
		e.ID, e.Name, e.Document, e.Email, e.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Entity, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Kind != "" {
		where = append(where, "kind = "+arg(f.Kind))
	}
	if f.Search != "" {
		s := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR document ILIKE %s)", s, s))
	}
	if f.Active != nil {
		where = append(where, "active = "+arg(*f.Active))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM entities WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM entities WHERE `+cond+
			` ORDER BY name LIMIT `+arg(limit)+` OFFSET `+arg(offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ExistsActive(ctx context.Context, kind workflow.Kind, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE id = $1 AND kind = $2 AND active)`,
		id, kind).Scan(&exists)
	return exists, err
}
