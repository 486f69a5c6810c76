package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ListFilter narrows list/count queries. A nil Status matches all orders.
type ListFilter struct {
	Status *Status
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, f ListFilter, offset, limit int) ([]Order, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// Create persists the order and all its items in one transaction. A
// partial write is never visible: either every row commits or none do.
func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, total_amount, total_items, status, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.TotalAmount, o.TotalItems, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price)
             VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), o.ID, it.ProductID, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, total_amount, total_items, status, created_at
         FROM orders WHERE id = $1`,
		orderID,
	).Scan(&o.ID, &o.TotalAmount, &o.TotalItems, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity, price
         FROM order_items WHERE order_id = $1`,
		o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

// List returns one page of orders without their items, newest first.
// The id tiebreak keeps the ordering deterministic across calls.
func (r *repo) List(ctx context.Context, f ListFilter, offset, limit int) ([]Order, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if f.Status != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, total_amount, total_items, status, created_at
         FROM orders WHERE status = $1
         ORDER BY created_at DESC, id
         OFFSET $2 LIMIT $3`,
			*f.Status, offset, limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, total_amount, total_items, status, created_at
         FROM orders
         ORDER BY created_at DESC, id
         OFFSET $1 LIMIT $2`,
			offset, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TotalAmount, &o.TotalItems, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return orders, nil
}

func (r *repo) Count(ctx context.Context, f ListFilter) (int, error) {
	var (
		total int
		err   error
	)
	if f.Status != nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE status = $1`, *f.Status,
		).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders`,
		).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

// UpdateStatus sets the status column and returns the updated row, or
// (nil, nil) when no order has that id.
func (r *repo) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2
         RETURNING id, total_amount, total_items, status, created_at`,
		status, orderID,
	).Scan(&o.ID, &o.TotalAmount, &o.TotalItems, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &o, nil
}
