package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TemirB/sheet-ledger/internal/config"
	"github.com/TemirB/sheet-ledger/internal/domain"
)

// DB is the part of *pgxpool.Pool the repo uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is the ledger store: order operations and subscriber operations over
// one pool.
type Repo struct {
	pool   DB
	tables config.Tables
}

func New(pool DB, t config.Tables) *Repo { return &Repo{pool: pool, tables: t} }

func (r *Repo) qt(tbl string) string { return pgx.Identifier{r.tables.Schema, tbl}.Sanitize() }

// ReplaceAllOrders swaps the whole orders table for orders in one transaction.
// On any error the transaction is rolled back and the previous rows remain.
func (r *Repo) ReplaceAllOrders(ctx context.Context, orders []domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, r.qt(r.tables.Orders))); err != nil {
		return storeErr("delete orders", err)
	}

	if len(orders) > 0 {
		insert := fmt.Sprintf(`
			INSERT INTO %s (idx, order_number, cost, deadline, cost_converted)
			VALUES ($1,$2,$3,$4,$5)
		`, r.qt(r.tables.Orders))

		batch := &pgx.Batch{}
		for _, o := range orders {
			batch.Queue(insert, o.Index, o.OrderNumber, o.Cost, o.Deadline, convertedArg(o))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storeErr("insert orders", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (r *Repo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT idx, order_number, cost, deadline, cost_converted
		FROM %s ORDER BY idx
	`, r.qt(r.tables.Orders)))
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.Index, &o.OrderNumber, &o.Cost, &o.Deadline, &o.Converted); err != nil {
			return nil, storeErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list orders", err)
	}
	return out, nil
}

func (r *Repo) ListSubscriberIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, r.qt(r.tables.Subscribers)))
	if err != nil {
		return nil, storeErr("list subscribers", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan subscriber", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list subscribers", err)
	}
	return ids, nil
}

// AddSubscriber is idempotent: an existing id is left untouched.
func (r *Repo) AddSubscriber(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, r.qt(r.tables.Subscribers)), id)
	if err != nil {
		return storeErr("add subscriber", err)
	}
	return nil
}

func (r *Repo) SubscriberExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE id=$1)`, r.qt(r.tables.Subscribers),
	), id).Scan(&exists)
	if err != nil {
		return false, storeErr("subscriber exists", err)
	}
	return exists, nil
}

// convertedArg passes the derived cost as text so pgx encodes it as NUMERIC
// without a decimal codec; NULL when the rate was never resolved.
func convertedArg(o domain.Order) any {
	if !o.Converted.Valid {
		return nil
	}
	return o.Converted.Decimal.StringFixed(2)
}

func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s: %s (%s): %w", domain.ErrStore, op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}

var (
	_ domain.OrderRepository      = (*Repo)(nil)
	_ domain.SubscriberRepository = (*Repo)(nil)
)
