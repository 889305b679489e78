package authflow

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"

	"github.com/calebhart/authflow/internal"
)

var (
	usernamePattern  = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	tripleDigitRun   = regexp.MustCompile(`[0-9]{3}`)
	doubleUnderscore = regexp.MustCompile(`_{2}`)
	underscoreRuns   = regexp.MustCompile(`_+`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
)

const reservedPrefixLen = 2

// ValidateUsername checks a candidate username against format rules and the
// configured reserved words (chat emotes). Checks run in a fixed order and
// the first failure wins. Returns a *ValidationError on rejection.
func (e *Engine) ValidateUsername(username string) error {
	if username == "" {
		return validationErr("Username required")
	}
	if !usernamePattern.MatchString(username) {
		return validationErr("Username may only contain A-z 0-9 or underscores and must be over 3 characters and under 20 characters in length.")
	}

	// Nick-to-emote similarity heuristics, not perfect sadly.
	normalized := strings.ToLower(username)
	front := prefix(normalized, reservedPrefixLen)
	for _, reserved := range e.config.Username.ReservedWords {
		normalizedReserved := strings.ToLower(reserved)
		if strings.HasPrefix(normalized, normalizedReserved) {
			return validationErr("Username too similar to an emote, try changing the first characters")
		}

		// Short common words produce too many false positives for the
		// fuzzy check, so only the exact-prefix rule above applies.
		if reserved == "LUL" {
			continue
		}

		short := prefix(normalized, len(reserved))
		if front == prefix(normalizedReserved, reservedPrefixLen) &&
			internal.Levenshtein(normalizedReserved, short) <= 2 {
			return validationErr("Username too similar to an emote, try changing the first characters")
		}
	}

	if tripleDigitRun.MatchString(username) {
		return validationErr("Too many numbers in a row in username")
	}
	if doubleUnderscore.MatchString(username) || len(underscoreRuns.FindAllString(username, -1)) > 2 {
		return validationErr("Too many underscores in username")
	}
	digits := len(digitPattern.FindAllString(username, -1))
	if float64(digits) > math.Round(float64(len(username))/2) {
		return validationErr("Number ratio is too high in username")
	}

	return nil
}

// ValidateEmail checks format, ownership, and the domain blacklist. owner,
// when non-nil, is excluded from the ownership check so a user keeps their
// own address. Returns a *ValidationError for user-correctable failures;
// store errors pass through unchanged.
func (e *Engine) ValidateEmail(ctx context.Context, email string, owner *UserRecord) error {
	if err := e.checkEmailFormat(email); err != nil {
		return err
	}

	var excludeID int64
	if owner != nil {
		excludeID = owner.ID
	}
	taken, err := e.users.IsEmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("email ownership check: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	return e.checkEmailDomain(email)
}

// ValidateEmailFormat checks format and the domain blacklist without the
// ownership lookup. Used for emails arriving from an external provider,
// where ownership is resolved later in registration.
func (e *Engine) ValidateEmailFormat(email string) error {
	if err := e.checkEmailFormat(email); err != nil {
		return err
	}
	return e.checkEmailDomain(email)
}

func (e *Engine) checkEmailFormat(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationErr("A valid email is required")
	}
	return nil
}

func (e *Engine) checkEmailDomain(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return validationErr("A valid email is required")
	}
	domain := strings.ToLower(email[at+1:])
	for _, blocked := range e.config.Email.BlacklistedDomains {
		if domain == strings.ToLower(blocked) {
			return ErrBlacklistedDomain
		}
	}
	return nil
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
