package rememberme

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/calebhart/authflow/internal"
)

// Cipher is the symmetric encryption dependency. Both sides of the token
// codec live here; the cipher deals only in opaque bytes.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Cookie is the transport for the remember-me value, adapted by the host
// from whatever cookie mechanism it uses. HTTPCookie is the shipped
// implementation.
type Cookie interface {
	Value() string
	Set(value string, expires time.Time)
	Clear()
}

// Config tunes token issuance and the structural pre-filter.
type Config struct {
	// ExpiryJitter is the window for the random component of the payload
	// expiry.
	ExpiryJitter time.Duration
	// MinTokenLength rejects short cookie values before any decryption
	// attempt.
	MinTokenLength int
}

// Manager issues and resolves remember-me tokens.
type Manager struct {
	cipher Cipher
	cfg    Config

	// Now is replaceable in tests.
	Now func() time.Time
}

func NewManager(cipher Cipher, cfg Config) *Manager {
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = 1
	}
	return &Manager{
		cipher: cipher,
		cfg:    cfg,
		Now:    time.Now,
	}
}

// Issue writes a fresh token to the cookie, replacing any existing value.
// The payload expiry is one calendar month past a jittered base; the cookie's
// own transport expiry is two calendar months out, so the payload expiry
// always governs.
func (m *Manager) Issue(cookie Cookie, userID int64) error {
	if cookie.Value() != "" {
		cookie.Clear()
	}

	now := m.Now()
	expires := now.Add(internal.RandomOffset(m.cfg.ExpiryJitter)).AddDate(0, 1, 0)

	plaintext := encodePayload(payload{
		UserID:  userID,
		Expires: expires,
	})
	ciphertext, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt remember-me token: %w", err)
	}

	cookie.Set(base64.RawURLEncoding.EncodeToString(ciphertext), now.AddDate(0, 2, 0))
	return nil
}

// Resolve returns the user id named by the cookie's token. Structurally
// broken, undecryptable, and expired tokens clear the cookie and return
// ErrTokenInvalid or ErrTokenExpired; an absent value returns ErrNoToken and
// leaves the cookie alone. A valid token never clears here; whether the
// resolved id still names a live user is the caller's problem.
func (m *Manager) Resolve(cookie Cookie) (int64, error) {
	raw := cookie.Value()
	if raw == "" {
		return 0, ErrNoToken
	}

	if len(raw) < m.cfg.MinTokenLength {
		cookie.Clear()
		return 0, ErrTokenInvalid
	}

	ciphertext, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		cookie.Clear()
		return 0, ErrTokenInvalid
	}

	plaintext, err := m.cipher.Decrypt(ciphertext)
	if err != nil {
		cookie.Clear()
		return 0, ErrTokenInvalid
	}

	p, err := decodePayload(plaintext)
	if err != nil {
		cookie.Clear()
		return 0, ErrTokenInvalid
	}

	if !p.Expires.After(m.Now()) {
		cookie.Clear()
		return 0, ErrTokenExpired
	}

	return p.UserID, nil
}
