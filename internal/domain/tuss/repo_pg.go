package tuss

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned for unknown TUSS codes.
var ErrNotFound = errors.New("procedure not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Procedure, error) {
	var p Procedure
	err := r.pool.QueryRow(ctx,
		`SELECT code, description, chapter FROM tuss_procedures WHERE code = $1`,
		code).Scan(&p.Code, &p.Description, &p.Chapter)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Search(ctx context.Context, term string, limit, offset int) ([]*Procedure, int, error) {
	cond := `1=1`
	args := []interface{}{}
	if term != "" {
		args = append(args, "%"+term+"%")
		cond = `(code ILIKE $1 OR description ILIKE $1)`
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM tuss_procedures WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT code, description, chapter FROM tuss_procedures WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Procedure
	for rows.Next() {
		var p Procedure
		if err := rows.Scan(&p.Code, &p.Description, &p.Chapter); err != nil {
			return nil, 0, err
		}
		out = append(out, &p)
	}
	return out, total, rows.Err()
}
