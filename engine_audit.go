package authflow

import "context"

// emitAudit builds and dispatches one audit event. metadata is invoked only
// when a dispatcher is attached, so callers can defer map construction.
func (e *Engine) emitAudit(ctx context.Context, eventType string, userID int64, provider, sessionID string, success bool, opErr error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.clock(),
		EventType: eventType,
		UserID:    userID,
		Provider:  provider,
		SessionID: sessionID,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
