package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
)

type auditEventRow struct {
	ID                string    `db:"id"`
	Timestamp         time.Time `db:"timestamp"`
	ActorID           string    `db:"actor_id"`
	Action            string    `db:"action"`
	TargetID          string    `db:"target_id"`
	TargetType        string    `db:"target_type"`
	Payload           string    `db:"payload"`
	Signature         string    `db:"signature"`
	SignatureVerified bool      `db:"signature_verified"`
	Hash              string    `db:"hash"`
	DeviceInfo        string    `db:"device_info"`
	IPAddress         string    `db:"ip_address"`
}

func (r auditEventRow) toDomain() *domain.AuditEvent {
	return &domain.AuditEvent{
		ID: r.ID, Timestamp: r.Timestamp, ActorID: r.ActorID, Action: r.Action,
		TargetID: r.TargetID, TargetType: r.TargetType, Payload: r.Payload,
		Signature: r.Signature, SignatureVerified: r.SignatureVerified,
		Hash: r.Hash, DeviceInfo: r.DeviceInfo, IPAddress: r.IPAddress,
	}
}

// AuditRepository appends domain.AuditEvent rows. Strictly insert-only:
// there is no Update or Delete method, the audit stream only grows.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit event row.
func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_events (
			id, timestamp, actor_id, action, target_id, target_type,
			payload, signature, signature_verified, hash, device_info, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Timestamp, e.ActorID, e.Action, e.TargetID, e.TargetType,
		e.Payload, e.Signature, e.SignatureVerified, e.Hash, e.DeviceInfo, e.IPAddress,
	)
	return err
}

// ListByTarget returns every audit event recorded against a target, most recent first.
func (r *AuditRepository) ListByTarget(ctx context.Context, targetID string) ([]*domain.AuditEvent, error) {
	var rows []auditEventRow
	query := `
		SELECT id, timestamp, actor_id, action, target_id, target_type,
		       payload, signature, signature_verified, hash, device_info, ip_address
		FROM audit_events WHERE target_id = $1 ORDER BY timestamp DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, targetID); err != nil {
		return nil, err
	}

	events := make([]*domain.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}
