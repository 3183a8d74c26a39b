package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-orders/internal/domain"
)

// ListFilter narrows the order listing. Statuses is the already-scoped set
// for the caller; empty means no status constraint.
type ListFilter struct {
	OwnerID       *int64
	Statuses      []domain.OrderStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Ascending     bool
	Limit         int
	Offset        int
}

type RepositoryInterface interface {
	Create(ctx context.Context, o *domain.Order, changedBy int64) error
	ByID(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, error)
	Update(ctx context.Context, o domain.Order, hist *domain.StatusChange) error
	StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error)
	History(ctx context.Context, orderID int64) ([]domain.StatusChange, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

// Create persists the order header, its line items and the initial status
// ledger entry in one transaction. A failing line item aborts the whole
// creation so no partial order is ever visible.
func (r *Repository) Create(ctx context.Context, o *domain.Order, changedBy int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, status, table_number, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, o.UserID, o.Status, o.TableNumber, o.Notes).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, o.ID, item.MenuItemID, item.Quantity, item.Comment).Scan(&item.ID)
		if isFKViolation(err) {
			return domain.NewValidationError().Add("items",
				fmt.Sprintf("menu item %d does not exist", item.MenuItemID))
		}
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, o.ID, o.Status, changedBy); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) ByID(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, table_number, notes, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TableNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}

	items, err := r.itemsFor(ctx, []int64{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			args = append(args, st)
			ph = append(ph, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, "status IN ("+strings.Join(ph, ", ")+")")
	}
	if f.CreatedAfter != nil {
		args = append(args, *f.CreatedAfter)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.CreatedBefore != nil {
		args = append(args, *f.CreatedBefore)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, user_id, status, table_number, notes, created_at, updated_at FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TableNumber, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Items = []domain.OrderItem{}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if list, ok := items[out[i].ID]; ok {
			out[i].Items = list
		}
	}
	return out, nil
}

// Update writes the mutable order fields and, when hist is non-nil, appends
// the ledger entry in the same transaction: the status never changes without
// its history row, and vice versa.
func (r *Repository) Update(ctx context.Context, o domain.Order, hist *domain.StatusChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, table_number = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
	`, o.ID, o.Status, o.TableNumber, o.Notes)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	if hist != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_history (order_id, status, changed_by, changed_at)
			VALUES ($1, $2, $3, NOW())
		`, o.ID, hist.Status, hist.ChangedBy); err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var st domain.OrderStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// History returns the ledger for an order, newest-first.
func (r *Repository) History(ctx context.Context, orderID int64) ([]domain.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT h.id, h.order_id, h.status, h.changed_by, u.username, h.changed_at
		FROM order_status_history h
		LEFT JOIN users u ON u.id = h.changed_by
		WHERE h.order_id = $1
		ORDER BY h.changed_at DESC, h.id DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StatusChange, 0)
	for rows.Next() {
		var hc domain.StatusChange
		if err := rows.Scan(&hc.ID, &hc.OrderID, &hc.Status, &hc.ChangedBy,
			&hc.ChangedByName, &hc.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, hc)
	}
	return out, rows.Err()
}

func (r *Repository) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[int64][]domain.OrderItem{}, nil
	}

	ph := make([]string, len(orderIDs))
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, quantity, comment
		FROM order_items
		WHERE order_id IN (`+strings.Join(ph, ", ")+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.OrderItem)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.Comment); err != nil {
			return nil, err
		}
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	return items, rows.Err()
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
