package rememberme

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

// xorCipher is a deterministic stand-in for the real cipher.
type xorCipher struct{ key byte }

func (c xorCipher) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	for i, b := range plaintext {
		out[i] = b ^ c.key
	}
	return out, nil
}

func (c xorCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	return c.Encrypt(ciphertext)
}

type failingCipher struct{}

func (failingCipher) Encrypt([]byte) ([]byte, error) { return nil, errors.New("boom") }
func (failingCipher) Decrypt([]byte) ([]byte, error) { return nil, errors.New("boom") }

type fakeCookie struct {
	value   string
	expires time.Time
	sets    int
	clears  int
}

func (c *fakeCookie) Value() string { return c.value }

func (c *fakeCookie) Set(value string, expires time.Time) {
	c.value = value
	c.expires = expires
	c.sets++
}

func (c *fakeCookie) Clear() {
	c.value = ""
	c.clears++
}

func newTestManager(now time.Time) *Manager {
	m := NewManager(xorCipher{key: 0x5a}, Config{
		ExpiryJitter:   28 * 24 * time.Hour,
		MinTokenLength: 16,
	})
	m.Now = func() time.Time { return now }
	return m
}

func TestIssueAndResolve(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)
	cookie := &fakeCookie{}

	if err := m.Issue(cookie, 42); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if cookie.value == "" || cookie.sets != 1 {
		t.Fatal("expected a cookie write")
	}
	if !cookie.expires.Equal(now.AddDate(0, 2, 0)) {
		t.Fatalf("expected two-month transport expiry, got %v", cookie.expires)
	}

	userID, err := m.Resolve(cookie)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
	if cookie.clears != 0 {
		t.Fatal("valid token must not clear the cookie")
	}
}

func TestIssuePayloadExpiryWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)
	cookie := &fakeCookie{}

	if err := m.Issue(cookie, 7); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.value)
	if err != nil {
		t.Fatalf("cookie not base64: %v", err)
	}
	plain, err := xorCipher{key: 0x5a}.Decrypt(raw)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	p, err := decodePayload(plain)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	min := now.AddDate(0, 1, 0)
	max := now.Add(28 * 24 * time.Hour).AddDate(0, 1, 0)
	if p.Expires.Before(min) || p.Expires.After(max) {
		t.Fatalf("expiry %v outside [%v, %v]", p.Expires, min, max)
	}
}

func TestIssueReplacesExistingValue(t *testing.T) {
	m := newTestManager(time.Now())
	cookie := &fakeCookie{value: "stale"}

	if err := m.Issue(cookie, 9); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if cookie.clears != 1 {
		t.Fatal("expected the stale value cleared before writing")
	}
	if cookie.value == "" || cookie.value == "stale" {
		t.Fatal("expected a fresh value")
	}
}

func TestIssuePropagatesCipherFailure(t *testing.T) {
	m := NewManager(failingCipher{}, Config{MinTokenLength: 16})
	cookie := &fakeCookie{}

	if err := m.Issue(cookie, 9); err == nil {
		t.Fatal("expected cipher failure to surface")
	}
	if cookie.sets != 0 {
		t.Fatal("failed issue must not write a cookie")
	}
}

func TestResolveEmptyCookie(t *testing.T) {
	m := newTestManager(time.Now())
	cookie := &fakeCookie{}

	_, err := m.Resolve(cookie)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if cookie.clears != 0 {
		t.Fatal("absent value must not clear the cookie")
	}
}

func TestResolveShortValueClears(t *testing.T) {
	m := newTestManager(time.Now())
	cookie := &fakeCookie{value: "short"}

	_, err := m.Resolve(cookie)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if cookie.clears != 1 {
		t.Fatal("short value must clear the cookie")
	}
}

func TestResolveTamperedTokenClears(t *testing.T) {
	now := time.Now()
	m := newTestManager(now)
	cookie := &fakeCookie{}

	if err := m.Issue(cookie, 42); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Corrupt the leading byte, which carries the payload version.
	tampered := []byte(cookie.value)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}
	cookie.value = string(tampered)

	_, err := m.Resolve(cookie)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if cookie.clears == 0 {
		t.Fatal("tampered token must clear the cookie")
	}
}

func TestResolveExpiredTokenClears(t *testing.T) {
	issueTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(issueTime)
	cookie := &fakeCookie{}

	if err := m.Issue(cookie, 42); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Jump past the widest possible payload expiry.
	m.Now = func() time.Time { return issueTime.AddDate(0, 3, 0) }

	_, err := m.Resolve(cookie)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if cookie.clears != 1 {
		t.Fatal("expired token must clear the cookie")
	}
}

func TestResolveGarbageBase64Clears(t *testing.T) {
	m := newTestManager(time.Now())
	cookie := &fakeCookie{value: strings.Repeat("!", 32)}

	_, err := m.Resolve(cookie)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if cookie.clears != 1 {
		t.Fatal("undecodable value must clear the cookie")
	}
}
