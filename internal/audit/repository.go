package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a persisted audit event as read back from audit_log.
type Entry struct {
	ID         int64          `json:"id"`
	EventID    string         `json:"event_id"`
	ActorID    *int64         `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Outcome    string         `json:"outcome"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type RepositoryInterface interface {
	Insert(ctx context.Context, e Event) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

// Insert is idempotent on event_id so redelivered messages are harmless.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_id, actor_id, actor_role, action, resource, outcome, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`, e.EventID, e.ActorID, e.ActorRole, e.Action, e.Resource, e.Outcome, detail, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, actor_id, actor_role, action, resource, outcome, detail, occurred_at
		FROM audit_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var detail []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.ActorID, &e.ActorRole, &e.Action,
			&e.Resource, &e.Outcome, &detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &e.Detail)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
