package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-orders/internal/domain"
)

// ItemFilter narrows the item listing; nil fields mean no constraint.
type ItemFilter struct {
	Available  *bool
	CategoryID *int64
}

type RepositoryInterface interface {
	ListItems(ctx context.Context, f ItemFilter) ([]domain.MenuItem, error)
	ItemByID(ctx context.Context, id int64) (domain.MenuItem, error)
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	UpdateItem(ctx context.Context, item domain.MenuItem) error
	DeleteItem(ctx context.Context, id int64) error
	ToggleAvailability(ctx context.Context, id int64) (bool, error)
	ListCategories(ctx context.Context) ([]domain.MenuCategory, error)
	CreateCategory(ctx context.Context, c *domain.MenuCategory) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

const itemColumns = `id, name, description, price, available, category_id, image_url, created_at`

func (r *Repository) ListItems(ctx context.Context, f ItemFilter) ([]domain.MenuItem, error) {
	var (
		where []string
		args  []any
	)
	if f.Available != nil {
		args = append(args, *f.Available)
		where = append(where, fmt.Sprintf("available = $%d", len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM menu_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) ItemByID(ctx context.Context, id int64) (domain.MenuItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE id = $1`, id)

	var item domain.MenuItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Available, &item.CategoryID, &item.ImageURL, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MenuItem{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("query menu item: %w", err)
	}
	return item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, description, price, available, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, item.Name, item.Description, item.Price, item.Available,
		item.CategoryID, item.ImageURL).Scan(&item.ID, &item.CreatedAt)
	if isFKViolation(err) {
		return domain.NewValidationError().Add("category_id", "category does not exist")
	}
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (r *Repository) UpdateItem(ctx context.Context, item domain.MenuItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, available = $5, category_id = $6, image_url = $7
		WHERE id = $1
	`, item.ID, item.Name, item.Description, item.Price, item.Available,
		item.CategoryID, item.ImageURL)
	if isFKViolation(err) {
		return domain.NewValidationError().Add("category_id", "category does not exist")
	}
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleAvailability flips the flag and returns the new value.
func (r *Repository) ToggleAvailability(ctx context.Context, id int64) (bool, error) {
	var available bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE menu_items SET available = NOT available WHERE id = $1
		RETURNING available
	`, id).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle availability: %w", err)
	}
	return available, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM menu_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MenuCategory, 0)
	for rows.Next() {
		var c domain.MenuCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c *domain.MenuCategory) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO menu_categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (domain.MenuItem, error) {
	var item domain.MenuItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Available, &item.CategoryID, &item.ImageURL, &item.CreatedAt)
	return item, err
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
