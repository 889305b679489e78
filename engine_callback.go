package authflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/calebhart/authflow/rememberme"
)

// One-shot session keys consumed by the callback dispatcher. The host writes
// them before redirecting to the external provider; each is read exactly once.
const (
	// SessionKeyAccountMerge holds "1" when the callback should merge the
	// arriving identity into the logged-in account.
	SessionKeyAccountMerge = "accountMerge"
	// SessionKeyFollow holds the post-login redirect target.
	SessionKeyFollow = "follow"
	// SessionKeyRememberMe holds the login form's remember-me preference.
	SessionKeyRememberMe = "rememberme"
	// SessionKeyAuthStash holds the JSON credentials handed to registration
	// when the identity is not yet linked.
	SessionKeyAuthStash = "authSession"
)

// Post-auth redirect targets.
const (
	redirectProfile        = "/profile"
	redirectAuthentication = "/profile/authentication"
	redirectRegister       = "/register"
)

// CompleteAuthentication is the terminal step of an external provider
// callback. It dispatches on session state to exactly one of: account merge,
// registration hand-off for an unlinked identity, or login. The returned
// Outcome tells the surrounding handler where to redirect.
func (e *Engine) CompleteAuthentication(ctx context.Context, sess SessionState, cookie rememberme.Cookie, creds AuthCredentials) (Outcome, error) {
	if !e.ready() {
		return Outcome{}, ErrEngineNotReady
	}

	if !creds.Valid() {
		// The payload goes through audit, not the error, so the caller can
		// keep its user-facing message generic.
		e.metrics.Inc(MetricCallbackRejected)
		e.emitAudit(ctx, AuditCallbackRejected, 0, creds.Provider, sess.SessionID(), false, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"authId": creds.AuthID,
				"email":  creds.Email,
			}
		})
		return Outcome{}, ErrInvalidCredentials
	}

	if creds.Email != "" {
		if err := e.ValidateEmailFormat(creds.Email); err != nil {
			e.metrics.Inc(MetricCallbackRejected)
			e.emitAudit(ctx, AuditCallbackRejected, 0, creds.Provider, sess.SessionID(), false, err, nil)
			return Outcome{}, err
		}
	}

	if sess.GetOneShot(ctx, SessionKeyAccountMerge) == "1" {
		return e.dispatchMerge(ctx, sess, creds)
	}

	follow := sess.GetOneShot(ctx, SessionKeyFollow)
	remember := sess.GetOneShot(ctx, SessionKeyRememberMe)

	linked, err := e.users.AuthProviderLinked(ctx, creds.AuthID, creds.Provider)
	if err != nil {
		return Outcome{}, fmt.Errorf("auth profile lookup: %w", err)
	}
	if !linked {
		return e.dispatchRegistration(ctx, sess, creds, follow)
	}

	user, err := e.loginLinkedUser(ctx, sess, creds)
	if err != nil {
		e.metrics.Inc(MetricCallbackRejected)
		e.emitAudit(ctx, AuditCallbackRejected, 0, creds.Provider, sess.SessionID(), false, err, nil)
		return Outcome{}, err
	}

	if remember == "1" || remember == "true" {
		if err := e.rememberMe.Issue(cookie, user.ID); err != nil {
			// Login must not fail over a cookie write.
			log.Printf("authflow: remember-me token issue for user %d: %v", user.ID, err)
			e.emitAudit(ctx, AuditRememberMeFailed, user.ID, creds.Provider, sess.SessionID(), false, err, nil)
		} else {
			e.metrics.Inc(MetricRememberMeIssued)
			e.emitAudit(ctx, AuditRememberMeIssued, user.ID, creds.Provider, sess.SessionID(), true, nil, nil)
		}
	}

	e.metrics.Inc(MetricCallbackSuccess)
	e.emitAudit(ctx, AuditCallbackSuccess, user.ID, creds.Provider, sess.SessionID(), true, nil, nil)

	if follow != "" && strings.HasPrefix(follow, "/") {
		return Outcome{Redirect: follow}, nil
	}
	return Outcome{Redirect: redirectProfile}, nil
}

func (e *Engine) dispatchMerge(ctx context.Context, sess SessionState, creds AuthCredentials) (Outcome, error) {
	if !sess.HasRole(RoleUser) {
		e.metrics.Inc(MetricMergeFailure)
		e.emitAudit(ctx, AuditMergeFailure, 0, creds.Provider, sess.SessionID(), false, ErrAuthenticationRequired, nil)
		return Outcome{}, ErrAuthenticationRequired
	}

	userID := e.sessionUserID(sess)
	if err := e.mergeAccounts(ctx, userID, creds); err != nil {
		e.metrics.Inc(MetricMergeFailure)
		e.emitAudit(ctx, AuditMergeFailure, userID, creds.Provider, sess.SessionID(), false, err, nil)
		return Outcome{}, err
	}

	e.metrics.Inc(MetricMergeSuccess)
	e.emitAudit(ctx, AuditMergeSuccess, userID, creds.Provider, sess.SessionID(), true, nil, nil)
	return Outcome{Redirect: redirectAuthentication}, nil
}

func (e *Engine) dispatchRegistration(ctx context.Context, sess SessionState, creds AuthCredentials, follow string) (Outcome, error) {
	stash, err := json.Marshal(creds)
	if err != nil {
		return Outcome{}, fmt.Errorf("stash auth credentials: %w", err)
	}
	if err := sess.Set(ctx, SessionKeyAuthStash, string(stash)); err != nil {
		return Outcome{}, fmt.Errorf("stash auth credentials: %w", err)
	}

	target := redirectRegister + "?code=" + url.QueryEscape(creds.AuthCode)
	if follow != "" {
		target += "&follow=" + url.QueryEscape(follow)
	}

	e.metrics.Inc(MetricRegistrationRedirect)
	e.emitAudit(ctx, AuditRegistrationRedirect, 0, creds.Provider, sess.SessionID(), true, nil, nil)
	return Outcome{Redirect: target}, nil
}

// loginLinkedUser turns a callback for an already-linked identity into a
// logged-in session. The session id is renewed to resist fixation before any
// credentials are installed.
func (e *Engine) loginLinkedUser(ctx context.Context, sess SessionState, creds AuthCredentials) (*UserRecord, error) {
	user, err := e.users.ByAuthID(ctx, creds.AuthID, creds.Provider)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile, err := e.users.AuthProfile(ctx, user.ID, creds.Provider)
	if err != nil {
		return nil, fmt.Errorf("auth profile lookup: %w", err)
	}
	if profile != nil {
		err = e.users.UpdateAuthProfile(ctx, user.ID, creds.Provider, creds.AuthCode, creds.AuthDetail)
		if err != nil {
			return nil, fmt.Errorf("auth profile update: %w", err)
		}
	}

	if err := sess.Renew(ctx, true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionRenewFailed, err)
	}

	built, err := e.BuildCredentials(ctx, user, creds.Provider)
	if err != nil {
		return nil, err
	}
	if err := sess.InstallCredentials(ctx, built); err != nil {
		return nil, fmt.Errorf("install credentials: %w", err)
	}
	if err := e.chat.SetSession(ctx, built, sess.SessionID()); err != nil {
		log.Printf("authflow: chat session update for user %d: %v", user.ID, err)
	}

	return user, nil
}
