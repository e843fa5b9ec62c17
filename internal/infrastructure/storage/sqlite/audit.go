package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oficio/internal/core/audit"
	"oficio/internal/core/id"
)

// AuditRecorder writes audit entries to sys_audit.
type AuditRecorder struct {
	txManager *TxManager
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates an audit recorder.
func NewAuditRecorder(txManager *TxManager) *AuditRecorder {
	return &AuditRecorder{txManager: txManager}
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).ExecContext(ctx, `
		INSERT INTO sys_audit (id, entity_type, entity_id, action, user_id, user_email, source, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id.New(), e.EntityType, e.EntityID, string(e.Action), e.Actor.UserID, e.Actor.Email, e.Actor.Source,
		string(changes), time.Now().UTC())
	return classify("insert audit entry", err)
}
