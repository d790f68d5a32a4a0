package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

const orderColumns = `o.id, o.number, o.order_key, COALESCE(o.customer_id, 0), o.status, o.total::text,
                      o.currency, o.payment_method, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, extra ...any) (model.Order, error) {
	var (
		o     model.Order
		total string
	)
	dest := append([]any{&o.ID, &o.Number, &o.Key, &o.CustomerID, &o.Status, &total,
		&o.Currency, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Order{}, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return model.Order{}, fmt.Errorf("order %d total %q: %w", o.ID, total, err)
	}
	o.Total = amount
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	const query = `WITH next AS (SELECT nextval(pg_get_serial_sequence('orders', 'id')) AS id)
                   INSERT INTO orders (id, number, order_key, customer_id, status, total, currency, payment_method)
                   SELECT next.id, COALESCE(NULLIF($1, ''), next.id::text), $2, NULLIF($3, 0), $4, $5::numeric, $6, $7
                   FROM next
                   RETURNING id, number, created_at, updated_at`
	created := *order
	err := r.storage.pool.QueryRow(ctx, query,
		order.Number, order.Key, order.CustomerID, order.Status, order.Total.String(), order.Currency, order.PaymentMethod,
	).Scan(&created.ID, &created.Number, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.customer_id=$1 ORDER BY o.created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) FindByMeta(ctx context.Context, key, value string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o
              JOIN order_meta m ON m.order_id = o.id
              WHERE m.meta_key=$1 AND m.meta_value=$2
              ORDER BY o.id
              LIMIT 1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, key, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetMeta(ctx context.Context, orderID int64, key string) (string, error) {
	const query = `SELECT meta_value FROM order_meta WHERE order_id=$1 AND meta_key=$2`
	var value string
	if err := r.storage.pool.QueryRow(ctx, query, orderID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domainErrors.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *orderRepository) UpdateMeta(ctx context.Context, orderID int64, key, value string) error {
	const query = `INSERT INTO order_meta (order_id, meta_key, meta_value) VALUES ($1, $2, $3)
                   ON CONFLICT (order_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`
	if _, err := r.storage.pool.Exec(ctx, query, orderID, key, value); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus, note string) (bool, error) {
	const updateQuery = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	moved := false
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateQuery, to, orderID, allowed)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		moved = true
		if note == "" {
			return nil
		}
		return insertNote(ctx, tx, orderID, note)
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertNote(ctx context.Context, db execer, orderID int64, note string) error {
	const query = `INSERT INTO order_notes (order_id, note) VALUES ($1, $2)`
	_, err := db.Exec(ctx, query, orderID, note)
	return err
}

func (r *orderRepository) AddNote(ctx context.Context, orderID int64, note string) error {
	if err := insertNote(ctx, r.storage.pool, orderID, note); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *orderRepository) ListNotes(ctx context.Context, orderID int64) ([]model.OrderNote, error) {
	const query = `SELECT id, order_id, note, created_at FROM order_notes WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderNote
	for rows.Next() {
		var n model.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error) {
	query := `SELECT ` + orderColumns + `, m.meta_value FROM orders o
              JOIN order_meta m ON m.order_id = o.id AND m.meta_key = $1
              WHERE o.payment_method = $2
                AND o.status = ANY($3)
                AND o.created_at < $4
                AND m.meta_value <> ''
              ORDER BY o.invoice_synced_at ASC NULLS FIRST, o.created_at ASC
              LIMIT $5`
	awaiting := []string{string(model.OrderStatusPending), string(model.OrderStatusOnHold)}

	rows, err := r.storage.pool.Query(ctx, query, model.MetaInvoiceID, model.PaymentMethodLightPay, awaiting, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PendingInvoice
	for rows.Next() {
		var invoiceID string
		o, err := scanOrder(rows, &invoiceID)
		if err != nil {
			return nil, err
		}
		result = append(result, model.PendingInvoice{Order: o, InvoiceID: invoiceID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) MarkInvoiceSynced(ctx context.Context, orderID int64, at time.Time) error {
	const query = `UPDATE orders SET invoice_synced_at = $2 WHERE id = $1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
