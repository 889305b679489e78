package authflow

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the engine.
const (
	AuditCallbackSuccess      = "auth_callback_success"
	AuditCallbackRejected     = "auth_callback_rejected"
	AuditRegistrationRedirect = "registration_redirect"
	AuditMergeSuccess         = "account_merge_success"
	AuditMergeFailure         = "account_merge_failure"
	AuditRememberMeIssued     = "rememberme_issued"
	AuditRememberMeFailed     = "rememberme_issue_failed"
	AuditRememberMeResumed    = "rememberme_resumed"
	AuditSessionResumed       = "session_resumed"
	AuditCredentialsRefreshed = "credentials_refreshed"
	AuditUserFlagged          = "user_flagged_for_update"
)

// AuditEvent is the canonical audit record emitted by the engine.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    int64             `json:"user_id,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives emitted audit events. Emit is called from the
// dispatcher goroutine, never from the request path.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpAuditSink drops audit events.
type NoOpAuditSink struct{}

func (NoOpAuditSink) Emit(context.Context, AuditEvent) {}

// ChannelAuditSink forwards audit events into a buffered channel.
type ChannelAuditSink struct {
	events chan AuditEvent
}

func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelAuditSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelAuditSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelAuditSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONAuditSink writes one JSON object per line.
type JSONAuditSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONAuditSink(w io.Writer) *JSONAuditSink {
	return &JSONAuditSink{
		writer: w,
	}
}

func (s *JSONAuditSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
