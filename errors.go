package authflow

import "errors"

var (
	// ErrInvalidCredentials is returned when an external callback payload
	// fails its own validity check. The payload is recorded through the
	// audit pipeline for operator diagnosis; the caller shows a generic
	// message.
	ErrInvalidCredentials = errors.New("invalid auth credentials")
	// ErrUserNotFound is returned when a linked identity resolves to no
	// user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another user already owns the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrBlacklistedDomain is returned when the email's domain is on the
	// configured blacklist.
	ErrBlacklistedDomain = errors.New("email domain blacklisted")
	// ErrAlreadyConnected is returned when a merge targets a profile that
	// already belongs to the session user.
	ErrAlreadyConnected = errors.New("accounts already connected")
	// ErrOlderAccount is returned when a merge targets a profile owned by
	// an older account. Merge direction is always older-absorbs-newer; the
	// user must log in with the other account and merge from there.
	ErrOlderAccount = errors.New("auth profile belongs to an older account")
	// ErrAuthenticationRequired is returned when an account merge is
	// attempted without an authenticated session.
	ErrAuthenticationRequired = errors.New("authentication required for account merge")
	// ErrSessionRenewFailed is returned when the session store cannot renew
	// the session during login.
	ErrSessionRenewFailed = errors.New("session renew failed")
	// ErrEngineNotReady is returned from operations on an uninitialized
	// engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError is a user-correctable identity validation failure. The
// message is safe to surface directly.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErr(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidationError reports whether err is a username/email validation
// failure whose message can be shown to the user.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
