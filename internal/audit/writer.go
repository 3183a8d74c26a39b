package audit

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-orders/internal/connections/rabbitmq"
	"restaurant-orders/internal/logger"
)

var (
	errRequeue = errors.New("requeue")     // nack(requeue=true)
	errDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

// Writer consumes audit events from the broker and persists them.
type Writer struct {
	mq   *rabbitmq.Client
	repo RepositoryInterface
	log  *logger.Logger

	Prefetch int
}

func NewWriter(mq *rabbitmq.Client, repo RepositoryInterface, log *logger.Logger) *Writer {
	return &Writer{mq: mq, repo: repo, log: log, Prefetch: 10}
}

// Run consumes until the context is canceled. Malformed bodies go to the
// dead-letter queue; database failures are requeued.
func (w *Writer) Run(ctx context.Context) error {
	msgs, err := w.mq.Consume(rabbitmq.AuditQueue, "audit-writer", w.Prefetch)
	if err != nil {
		return err
	}

	w.log.Info("audit_writer_started", map[string]any{"queue": rabbitmq.AuditQueue})

	for {
		select {
		case <-ctx.Done():
			w.log.Info("graceful_shutdown", nil)
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("audit queue channel closed")
			}
			err := w.processOne(ctx, d)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, errDLQ):
				_ = d.Nack(false, false)
			default:
				_ = d.Nack(false, true)
			}
		}
	}
}

func (w *Writer) processOne(ctx context.Context, d amqp.Delivery) error {
	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		w.log.Error("audit_event_malformed", err, map[string]any{"message_id": d.MessageId})
		return errDLQ
	}
	if e.EventID == "" {
		return errDLQ
	}
	if err := w.repo.Insert(ctx, e); err != nil {
		w.log.Error("audit_insert_failed", err, map[string]any{"event_id": e.EventID})
		return errRequeue
	}
	w.log.Debug("audit_event_stored", map[string]any{"event_id": e.EventID, "event": e.Action})
	return nil
}
