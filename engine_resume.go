package authflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/calebhart/authflow/rememberme"
)

// ResumeSession drives per-request session recovery. Exactly one branch
// applies per invocation:
//
//   - A session that starts from its cookie and already carries the USER role
//     is healthy. Its chat mirror expiration is renewed and nothing else
//     changes.
//   - Without a USER role, the remember-me token is the fallback. A resolved
//     user gets a fresh session, rebuilt credentials, a re-issued token
//     (sliding renewal), and an update flag.
//   - A USER role without a healthy cookie start consumes a pending update
//     flag: reload the user, clear the flag, rebuild and install credentials,
//     and push them to the chat mirror.
//
// Collaborator failures inside a branch surface as errors; mirror pushes are
// best-effort and only logged.
func (e *Engine) ResumeSession(ctx context.Context, sess SessionState, cookie rememberme.Cookie) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	switch {
	case sess.HasCookie() && sess.Start(ctx) && sess.HasRole(RoleUser):
		return e.resumeHealthy(ctx, sess)
	case !sess.HasRole(RoleUser):
		return e.resumeFromRememberMe(ctx, sess, cookie)
	default:
		return e.resumeFlagged(ctx, sess)
	}
}

func (e *Engine) resumeHealthy(ctx context.Context, sess SessionState) error {
	sessionID := sess.SessionID()
	if sessionID != "" {
		if err := e.chat.RenewExpiration(ctx, sessionID); err != nil {
			log.Printf("authflow: chat session expiration renew: %v", err)
		}
	}
	e.metrics.Inc(MetricSessionResumed)
	e.emitAudit(ctx, AuditSessionResumed, e.sessionUserID(sess), "", sessionID, true, nil, nil)
	return nil
}

func (e *Engine) resumeFromRememberMe(ctx context.Context, sess SessionState, cookie rememberme.Cookie) error {
	userID, err := e.rememberMe.Resolve(cookie)
	if err != nil {
		if errors.Is(err, rememberme.ErrNoToken) {
			return nil
		}
		// Invalid and expired tokens have already cleared the cookie.
		e.metrics.Inc(MetricRememberMeRejected)
		e.emitAudit(ctx, AuditRememberMeResumed, 0, ProviderRememberMe, "", false, err, nil)
		return nil
	}

	user, err := e.users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		// A stale id is not token tampering. The token stays; the account
		// may be mid-migration.
		return nil
	}

	sess.Start(ctx)
	creds, err := e.BuildCredentials(ctx, user, ProviderRememberMe)
	if err != nil {
		return err
	}
	if err := sess.InstallCredentials(ctx, creds); err != nil {
		return fmt.Errorf("install credentials: %w", err)
	}

	if err := e.rememberMe.Issue(cookie, user.ID); err != nil {
		log.Printf("authflow: remember-me token renew for user %d: %v", user.ID, err)
	}

	// The flag rebuild repeats work just done, but it also refreshes the
	// chat mirror, which this path has not touched yet.
	if err := e.FlagUserForUpdate(ctx, user.ID); err != nil {
		return err
	}

	e.metrics.Inc(MetricRememberMeResolved)
	e.emitAudit(ctx, AuditRememberMeResumed, user.ID, ProviderRememberMe, sess.SessionID(), true, nil, nil)
	return nil
}

func (e *Engine) resumeFlagged(ctx context.Context, sess SessionState) error {
	userID := e.sessionUserID(sess)
	if userID == 0 {
		return nil
	}

	flagged, err := e.IsUserFlaggedForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if !flagged {
		return nil
	}

	user, err := e.users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil
	}

	if err := e.ClearUserUpdateFlag(ctx, userID); err != nil {
		return err
	}
	creds, err := e.BuildCredentials(ctx, user, ProviderSession)
	if err != nil {
		return err
	}
	if err := sess.InstallCredentials(ctx, creds); err != nil {
		return fmt.Errorf("install credentials: %w", err)
	}
	// Unlike the refresh pushed when the flag was set, here the session id
	// is known, so the mirror gets the full session binding.
	if err := e.chat.SetSession(ctx, creds, sess.SessionID()); err != nil {
		log.Printf("authflow: chat session update for user %d: %v", user.ID, err)
	}

	e.emitAudit(ctx, AuditCredentialsRefreshed, user.ID, ProviderSession, sess.SessionID(), true, nil, nil)
	return nil
}

func (e *Engine) sessionUserID(sess SessionState) int64 {
	creds := sess.Credentials()
	if creds == nil {
		return 0
	}
	return creds.UserID
}
