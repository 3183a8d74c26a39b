// Package audit records who did what, to which resource, with what outcome.
// Recording is best-effort: a failed publish is logged and never aborts the
// business operation that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"restaurant-orders/internal/connections/rabbitmq"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/logger"
)

const (
	OutcomeOK        = "ok"
	OutcomeDenied    = "denied"
	OutcomeNotFound  = "not_found"
	OutcomeRejected  = "rejected"
)

type Event struct {
	EventID    string         `json:"event_id"`
	ActorID    *int64         `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Outcome    string         `json:"outcome"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Actor fills the actor fields from a caller (nil = anonymous).
func Actor(c *domain.Caller) (id *int64, role string) {
	if c == nil {
		return nil, "anonymous"
	}
	uid := c.ID
	return &uid, string(c.Role)
}

// Publisher emits events to the audit fanout exchange.
type Publisher struct {
	mq  *rabbitmq.Client
	log *logger.Logger
}

func NewPublisher(mq *rabbitmq.Client, log *logger.Logger) *Publisher {
	return &Publisher{mq: mq, log: log}
}

func (p *Publisher) Record(ctx context.Context, e Event) {
	e.EventID = uuid.NewString()
	e.OccurredAt = time.Now().UTC()

	body, err := json.Marshal(e)
	if err != nil {
		p.log.Error("audit_marshal_failed", err, map[string]any{"event": e.Action})
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.mq.Publish(pctx, rabbitmq.AuditExchange, "", body, e.EventID); err != nil {
		p.log.Error("audit_publish_failed", err, map[string]any{
			"event_id": e.EventID,
			"event":    e.Action,
		})
	}
}

// Nop discards events; used when the broker is not configured and in tests.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
