package authflow

import (
	"context"
	"fmt"
)

// mergeAccounts attaches the arriving external identity to the session
// user's account. When the identity already belongs to a different, newer
// account, that account loses the profile and is retired with status Merged.
// Merge direction is always older-absorbs-newer, with the numeric user id as
// the age proxy. No session rebuild happens here; the caller's next resume
// picks up the change.
func (e *Engine) mergeAccounts(ctx context.Context, sessionUserID int64, creds AuthCredentials) error {
	if sessionUserID == 0 {
		return ErrAuthenticationRequired
	}

	owner, err := e.users.ByAuthID(ctx, creds.AuthID, creds.Provider)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if owner != nil {
		if owner.ID == sessionUserID {
			return ErrAlreadyConnected
		}
		if owner.ID < sessionUserID {
			return fmt.Errorf("%w: log in with the %s account and merge from there", ErrOlderAccount, creds.Provider)
		}
		if err := e.users.RemoveAuthProfile(ctx, owner.ID, creds.Provider); err != nil {
			return fmt.Errorf("detach auth profile: %w", err)
		}
		if err := e.users.UpdateStatus(ctx, owner.ID, UserStatusMerged); err != nil {
			return fmt.Errorf("retire merged account: %w", err)
		}
	}

	err = e.users.AddAuthProfile(ctx, AuthProfile{
		UserID:       sessionUserID,
		Provider:     creds.Provider,
		AuthID:       creds.AuthID,
		AuthCode:     creds.AuthCode,
		AuthDetail:   creds.AuthDetail,
		RefreshToken: creds.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("attach auth profile: %w", err)
	}
	return nil
}
