package authflow

import (
	"time"

	"github.com/calebhart/authflow/rememberme"
)

// Engine is the authentication and session orchestration core. Construct it
// through [Builder.Build]; the zero value is not usable. All methods are safe
// for concurrent use.
type Engine struct {
	config Config

	users         UserStore
	roleFeatures  RoleFeatureStore
	subscriptions SubscriptionStore
	updateCache   Cache
	chat          ChatSessionMirror

	rememberMe *rememberme.Manager
	audit      *auditDispatcher
	metrics    *Metrics

	now func() time.Time
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.roleFeatures != nil &&
		e.subscriptions != nil && e.updateCache != nil && e.chat != nil &&
		e.rememberMe != nil
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Metrics exposes the engine's counters for host scraping.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
