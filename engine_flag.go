package authflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// updateFlagKeyPrefix namespaces update-flag cache entries by user id.
const updateFlagKeyPrefix = "refreshusersession-"

func updateFlagKey(userID int64) string {
	return updateFlagKeyPrefix + strconv.FormatInt(userID, 10)
}

// FlagUserForUpdate marks a user's session state as stale so the next resume
// of their session rebuilds credentials. The flag TTL is the maximum session
// lifetime, so a flag can never outlive every session it could apply to. The
// chat mirror is refreshed immediately with rebuilt credentials; the flagged
// user's own session is deliberately untouched here, since the triggering
// request is usually not theirs. An unknown user id is a no-op.
func (e *Engine) FlagUserForUpdate(ctx context.Context, userID int64) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	user, err := e.users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil
	}

	now := e.clock()
	err = e.updateCache.Save(ctx, updateFlagKey(user.ID), strconv.FormatInt(now.Unix(), 10), e.config.Session.MaxLifetime)
	if err != nil {
		return fmt.Errorf("save update flag: %w", err)
	}
	e.metrics.Inc(MetricUpdateFlagSet)
	e.emitAudit(ctx, AuditUserFlagged, user.ID, "", "", true, nil, nil)

	creds, err := e.BuildCredentials(ctx, user, ProviderSession)
	if err != nil {
		return fmt.Errorf("rebuild credentials: %w", err)
	}
	if err := e.chat.RefreshUserSession(ctx, creds); err != nil {
		// The flag is already set; the affected session still refreshes on
		// its next resume.
		log.Printf("authflow: chat session refresh for user %d: %v", user.ID, err)
	}

	return nil
}

// IsUserFlaggedForUpdate reports whether a non-empty flag entry exists.
func (e *Engine) IsUserFlaggedForUpdate(ctx context.Context, userID int64) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	value, err := e.updateCache.Fetch(ctx, updateFlagKey(userID))
	if err != nil {
		return false, fmt.Errorf("fetch update flag: %w", err)
	}
	return value != "", nil
}

// ClearUserUpdateFlag removes the flag entry.
func (e *Engine) ClearUserUpdateFlag(ctx context.Context, userID int64) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.updateCache.Delete(ctx, updateFlagKey(userID)); err != nil {
		return fmt.Errorf("delete update flag: %w", err)
	}
	e.metrics.Inc(MetricUpdateFlagCleared)
	return nil
}
