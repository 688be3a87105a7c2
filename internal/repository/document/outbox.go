package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	"github.com/clinsync/clinsync/internal/repository/docstore"
)

const (
	fieldEventType    = "event_type"
	fieldPayload      = "payload"
	fieldStatus       = "status"
	fieldErrorMessage = "error_message"
	fieldRetryCount   = "retry_count"
	fieldProcessedAt  = "processed_at"
)

type outboxRepository struct {
	store docstore.Store
}

func NewOutboxRepository(store docstore.Store) repository.OutboxRepository {
	return &outboxRepository{store: store}
}

func (r *outboxRepository) Create(ctx context.Context, eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}

	doc := docstore.Document{
		fieldEventType:  eventType,
		fieldPayload:    json.RawMessage(raw),
		fieldStatus:     string(model.OutboxStatusPending),
		fieldRetryCount: 0,
	}
	if _, err := r.store.Create(ctx, repository.CollectionOutbox, doc); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	docs, err := r.store.Query(ctx, repository.CollectionOutbox,
		docstore.Where(fieldStatus, string(model.OutboxStatusPending)))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	events := make([]*model.OutboxEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, outboxFromDoc(doc))
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id string) error {
	patch := docstore.Document{
		fieldStatus:      string(model.OutboxStatusProcessed),
		fieldProcessedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.Update(ctx, repository.CollectionOutbox, id, patch); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string, retryCount int) error {
	patch := docstore.Document{
		fieldStatus:       string(model.OutboxStatusFailed),
		fieldErrorMessage: reason,
		fieldRetryCount:   retryCount,
	}
	if err := r.store.Update(ctx, repository.CollectionOutbox, id, patch); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func outboxFromDoc(doc docstore.Document) *model.OutboxEvent {
	event := &model.OutboxEvent{
		ID:        doc.ID(),
		EventType: doc.String(fieldEventType),
		Status:    model.OutboxStatus(doc.String(fieldStatus)),
		CreatedAt: timeValue(doc[docstore.FieldCreatedAt]),
	}
	switch payload := doc[fieldPayload].(type) {
	case json.RawMessage:
		event.Payload = payload
	case map[string]interface{}:
		raw, _ := json.Marshal(payload)
		event.Payload = raw
	case string:
		event.Payload = json.RawMessage(payload)
	}
	if msg, ok := doc[fieldErrorMessage].(string); ok && msg != "" {
		event.ErrorMessage = &msg
	}
	switch count := doc[fieldRetryCount].(type) {
	case int:
		event.RetryCount = count
	case float64:
		event.RetryCount = int(count)
	}
	if raw, ok := doc[fieldProcessedAt]; ok {
		t := timeValue(raw)
		event.ProcessedAt = &t
	}
	return event
}
