// Package audit implements the append-only, content-hashed audit event
// stream. Every state-changing handler writes exactly one event here
// after its primary mutation commits.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/crypto"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/messaging"
)

// Store persists audit events. Satisfied by *repository.AuditRepository.
type Store interface {
	Append(ctx context.Context, e *domain.AuditEvent) error
}

// Publisher broadcasts an audit event for downstream consumers.
// Satisfied by *messaging.Publisher.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Writer records audit events. It never returns an error to callers
// that would otherwise block a successful business mutation on an
// audit-write failure; it logs and moves on.
type Writer struct {
	store     Store
	publisher Publisher
	logger    *logger.Logger
}

// New creates a new audit Writer.
func New(store Store, publisher Publisher, log *logger.Logger) *Writer {
	return &Writer{store: store, publisher: publisher, logger: log}
}

// Record appends one audit event. payload is marshaled to JSON for both
// the persisted row and the content hash. Failures are logged, not
// returned, so audit writing never blocks the mutation it follows: by
// the time a handler calls Record the primary mutation has already
// committed, and failed actions are never recorded at all.
func (w *Writer) Record(ctx context.Context, actorID, action, targetID, targetType string, payload interface{}) {
	now := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error().Err(err).Str("action", action).Msg("failed to marshal audit payload")
		return
	}

	hashInput := fmt.Sprintf("%s|%s|%s|%s|%s", actorID, action, targetID, payloadJSON, now.Format(time.RFC3339Nano))
	event := &domain.AuditEvent{
		Timestamp:  now,
		ActorID:    actorID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Payload:    string(payloadJSON),
		Hash:       crypto.HashContent(hashInput),
	}

	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error().Err(err).Str("action", action).Str("target_id", targetID).Msg("failed to persist audit event")
		return
	}

	if w.publisher == nil {
		return
	}

	data := messaging.AuditRecordedEvent{
		EventID:    event.ID,
		ActorID:    actorID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Hash:       event.Hash,
	}
	if err := w.publisher.Publish(ctx, messaging.EventAuditRecorded, data); err != nil {
		w.logger.Error().Err(err).Str("action", action).Msg("failed to publish audit event")
	}
}
