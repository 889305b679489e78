package authflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/calebhart/authflow/session"
)

// RedisSessionState adapts one request's session to the [SessionState]
// contract, backed by the session record store. The host constructs one per
// request from the session cookie value and, after the engine call, writes
// SessionID back to the cookie.
type RedisSessionState struct {
	store *session.Store
	ttl   time.Duration

	cookieID string
	record   *session.Record
	started  bool
}

func NewRedisSessionState(store *session.Store, cookieSessionID string, ttl time.Duration) *RedisSessionState {
	return &RedisSessionState{
		store:    store,
		ttl:      ttl,
		cookieID: cookieSessionID,
	}
}

func (s *RedisSessionState) HasCookie() bool {
	return s.cookieID != ""
}

// Start loads the record named by the cookie, or creates an anonymous one
// when there is none. Idempotent; reports whether a record is active.
func (s *RedisSessionState) Start(ctx context.Context) bool {
	if s.started {
		return s.record != nil
	}
	s.started = true

	if s.cookieID != "" {
		record, err := s.store.Get(ctx, s.cookieID)
		if err != nil {
			log.Printf("authflow: session load: %v", err)
			return false
		}
		if record != nil {
			s.record = record
			return true
		}
	}

	record := session.NewRecord()
	now := time.Now()
	record.CreatedAt = now.Unix()
	record.ExpiresAt = now.Add(s.ttl).Unix()
	if err := s.store.Save(ctx, record, s.ttl); err != nil {
		log.Printf("authflow: session create: %v", err)
		return false
	}
	s.record = record
	return true
}

func (s *RedisSessionState) HasRole(role string) bool {
	return s.record.HasRole(role)
}

// SessionID returns the active record's id, falling back to the cookie value
// before Start.
func (s *RedisSessionState) SessionID() string {
	if s.record != nil {
		return s.record.SessionID
	}
	return s.cookieID
}

// Renew replaces the stored record's id, keeping its contents. newID false
// just rewrites the record in place.
func (s *RedisSessionState) Renew(ctx context.Context, newID bool) error {
	if !s.Start(ctx) {
		return ErrSessionRenewFailed
	}

	oldID := s.record.SessionID
	if newID {
		s.record.SessionID = session.NewID()
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	if newID && oldID != "" {
		if err := s.store.Delete(ctx, oldID); err != nil {
			// The old record still expires on its own TTL.
			log.Printf("authflow: stale session delete: %v", err)
		}
	}
	return nil
}

// InstallCredentials swaps a freshly built authorization payload into the
// record in one write.
func (s *RedisSessionState) InstallCredentials(ctx context.Context, creds *SessionCredentials) error {
	if !s.Start(ctx) {
		return fmt.Errorf("session unavailable")
	}

	s.record.UserID = creds.UserID
	s.record.Username = creds.Username
	s.record.AuthProvider = creds.AuthProvider
	s.record.Roles = creds.Roles()
	s.record.Features = creds.Features()
	s.record.SubStart = ""
	s.record.SubEnd = ""
	if creds.Subscription != nil {
		s.record.SubStart = creds.Subscription.Start
		s.record.SubEnd = creds.Subscription.End
	}

	now := time.Now()
	if s.record.CreatedAt == 0 {
		s.record.CreatedAt = now.Unix()
	}
	s.record.ExpiresAt = now.Add(s.ttl).Unix()

	return s.save(ctx)
}

// Credentials rebuilds the installed payload from the record. Anonymous
// records yield nil.
func (s *RedisSessionState) Credentials() *SessionCredentials {
	if s.record == nil || s.record.UserID == 0 {
		return nil
	}

	creds := NewSessionCredentials(&UserRecord{
		ID:       s.record.UserID,
		Username: s.record.Username,
	})
	creds.AuthProvider = s.record.AuthProvider
	creds.AddRoles(s.record.Roles...)
	creds.AddFeatures(s.record.Features...)
	if s.record.SubStart != "" || s.record.SubEnd != "" {
		creds.Subscription = &SubscriptionWindow{
			Start: s.record.SubStart,
			End:   s.record.SubEnd,
		}
	}
	return creds
}

// GetOneShot reads and clears a session value. The clearing write is
// best-effort; a failure means the value may be seen once more, which every
// consumer of these markers tolerates.
func (s *RedisSessionState) GetOneShot(ctx context.Context, key string) string {
	if s.record == nil {
		return ""
	}
	value, ok := s.record.Values[key]
	if !ok {
		return ""
	}

	delete(s.record.Values, key)
	if err := s.save(ctx); err != nil {
		log.Printf("authflow: one-shot clear: %v", err)
	}
	return value
}

func (s *RedisSessionState) Set(ctx context.Context, key, value string) error {
	if !s.Start(ctx) {
		return fmt.Errorf("session unavailable")
	}
	if s.record.Values == nil {
		s.record.Values = make(map[string]string)
	}
	s.record.Values[key] = value
	return s.save(ctx)
}

func (s *RedisSessionState) save(ctx context.Context) error {
	ttl := s.ttl
	if s.record.ExpiresAt > 0 {
		if remaining := time.Until(time.Unix(s.record.ExpiresAt, 0)); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	return s.store.Save(ctx, s.record, ttl)
}
