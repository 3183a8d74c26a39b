package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-orders/internal/domain"
)

type RepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	ByID(ctx context.Context, id int64) (domain.User, error)
	ByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u domain.User) error
	CallerByID(ctx context.Context, id int64) (domain.Caller, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

const userColumns = `id, username, email, password_hash, role, is_active, created_at`

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.NewValidationError().Add("username", "already taken")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) ByID(ctx context.Context, id int64) (domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) ByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET email = $2, role = $3, is_active = $4 WHERE id = $1
	`, u.ID, u.Email, u.Role, u.IsActive)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CallerByID resolves a token subject to a live caller; inactive accounts
// are treated as not found so stale tokens stop working.
func (r *Repository) CallerByID(ctx context.Context, id int64) (domain.Caller, error) {
	var c domain.Caller
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, role FROM users WHERE id = $1 AND is_active
	`, id).Scan(&c.ID, &c.Username, &c.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Caller{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Caller{}, fmt.Errorf("query caller: %w", err)
	}
	return c, nil
}

func (r *Repository) scanOne(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
