package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const negCols = `id, negotiable_type, negotiable_id, status, title,
	negotiation_cycle, max_cycles_allowed, is_fork, fork_count,
	parent_negotiation_id, valid_until, approval_notes, approved_at,
	approved_by, created_by, created_at, updated_at`

func scanNegotiation(row pgx.Row) (*Negotiation, error) {
	var n Negotiation
	err := row.Scan(&n.ID, &n.NegotiableType, &n.NegotiableID, &n.Status, &n.Title,
		&n.NegotiationCycle, &n.MaxCyclesAllowed, &n.IsFork, &n.ForkCount,
		&n.ParentNegotiationID, &n.ValidUntil, &n.ApprovalNotes, &n.ApprovedAt,
		&n.ApprovedBy, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Negotiation) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO negotiations (id, negotiable_type, negotiable_id, status, title,
			negotiation_cycle, max_cycles_allowed, is_fork, fork_count,
			parent_negotiation_id, valid_until, approval_notes, approved_at,
			approved_by, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		n.ID, n.NegotiableType, n.NegotiableID, n.Status, n.Title,
		n.NegotiationCycle, n.MaxCyclesAllowed, n.IsFork, n.ForkCount,
		n.ParentNegotiationID, n.ValidUntil, n.ApprovalNotes, n.ApprovedAt,
		n.ApprovedBy, n.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Negotiation, error) {
	n, err := scanNegotiation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+negCols+` FROM negotiations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repoPG) Update(ctx context.Context, n *Negotiation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE negotiations SET status = $2, title = $3, negotiation_cycle = $4,
			max_cycles_allowed = $5, fork_count = $6, valid_until = $7,
			approval_notes = $8, approved_at = $9, approved_by = $10,
			updated_at = now()
		WHERE id = $1`,
		n.ID, n.Status, n.Title, n.NegotiationCycle,
		n.MaxCyclesAllowed, n.ForkCount, n.ValidUntil,
		n.ApprovalNotes, n.ApprovedAt, n.ApprovedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Negotiation, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.EntityType != "" {
		kind, err := workflow.ParseKind(f.EntityType)
		if err != nil {
			return nil, 0, err
		}
		// Rows may carry the legacy discriminator or the short form.
		where = append(where, fmt.Sprintf("negotiable_type IN (%s, %s)",
			arg(kind.Wire()), arg(string(kind))))
	}
	if f.NegotiableID != uuid.Nil {
		where = append(where, "negotiable_id = "+arg(f.NegotiableID))
	}
	if f.Search != "" {
		where = append(where, "title ILIKE "+arg("%"+f.Search+"%"))
	}
	if f.ParentID != uuid.Nil {
		where = append(where, "parent_negotiation_id = "+arg(f.ParentID))
	}
	if f.IsFork != nil {
		where = append(where, "is_fork = "+arg(*f.IsFork))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM negotiations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + negCols + ` FROM negotiations WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Negotiation
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

const itemCols = `id, negotiation_id, tuss_code, tuss_description,
	proposed_value, approved_value, status, notes, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.NegotiationID, &it.TUSSCode, &it.TUSSDescription,
		&it.ProposedValue, &it.ApprovedValue, &it.Status, &it.Notes,
		&it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

func (r *repoPG) AddItem(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	if item.Status == "" {
		item.Status = ItemStatusPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO negotiation_items (id, negotiation_id, tuss_code,
			tuss_description, proposed_value, approved_value, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ID, item.NegotiationID, item.TUSSCode,
		item.TUSSDescription, item.ProposedValue, item.ApprovedValue,
		item.Status, item.Notes)
	return err
}

func (r *repoPG) UpdateItem(ctx context.Context, item *Item) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE negotiation_items SET tuss_code = $2, tuss_description = $3,
			proposed_value = $4, approved_value = $5, status = $6, notes = $7,
			updated_at = now()
		WHERE id = $1`,
		item.ID, item.TUSSCode, item.TUSSDescription,
		item.ProposedValue, item.ApprovedValue, item.Status, item.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM negotiation_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) GetItems(ctx context.Context, negotiationID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM negotiation_items WHERE negotiation_id = $1 ORDER BY created_at`,
		negotiationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repoPG) ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		UPDATE negotiations SET status = $1, updated_at = now()
		WHERE status = ANY($2) AND valid_until IS NOT NULL AND valid_until < $3
		RETURNING id`,
		workflow.StatusExpired,
		[]string{
			string(workflow.StatusSubmitted),
			string(workflow.StatusPendingApproval),
			string(workflow.StatusPending),
			string(workflow.StatusPendingDirectorApproval),
		},
		now)
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
