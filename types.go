package authflow

import (
	"context"
	"sort"
	"time"
)

// UserStatus is the lifecycle state of a user account as persisted by the
// user store. This core only ever writes UserStatusMerged, during an
// account merge.
type UserStatus string

const (
	// UserStatusActive marks a normal, usable account.
	UserStatusActive UserStatus = "Active"
	// UserStatusMerged marks an account whose external identity was absorbed
	// into an older account. Merged accounts are retired, never reactivated.
	UserStatusMerged UserStatus = "Merged"
)

// Roles are coarse authorization grants carried by session credentials.
const (
	RoleUser       = "USER"
	RoleSubscriber = "SUBSCRIBER"
)

// Features are fine-grained entitlement flags carried by session credentials.
const (
	FeatureSubscriber   = "SUBSCRIBER"
	FeatureSubscriberT0 = "SUBSCRIBER_TIER_0"
	FeatureSubscriberT1 = "SUBSCRIBER_TIER_1"
	FeatureSubscriberT2 = "SUBSCRIBER_TIER_2"
	FeatureSubscriberT3 = "SUBSCRIBER_TIER_3"
	FeatureSubscriberT4 = "SUBSCRIBER_TIER_4"
)

// Auth provider names used for credentials rebuilt outside of an external
// callback. External callbacks carry their own provider name.
const (
	ProviderRememberMe = "rememberme"
	ProviderSession    = "session"
)

// UserRecord is the persisted account record owned by the [UserStore].
// This core treats it as immutable apart from the status mutation performed
// during an account merge.
type UserRecord struct {
	ID               int64
	Username         string
	Email            string
	Status           UserStatus
	TwitchSubscriber bool
}

// AuthCredentials is the transient payload produced by one external
// authentication callback. It is consumed immediately and never persisted
// as-is; the one exception is the JSON stash written to the session when the
// identity is not yet linked to a profile.
type AuthCredentials struct {
	Provider     string            `json:"provider"`
	AuthID       string            `json:"authId"`
	AuthCode     string            `json:"authCode"`
	AuthDetail   string            `json:"authDetail"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	Email        string            `json:"email,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Valid reports whether the credentials carry the fields every downstream
// step consumes. Validity is a precondition for all use.
func (c AuthCredentials) Valid() bool {
	return c.Provider != "" && c.AuthID != "" && c.AuthCode != ""
}

// AuthProfile links one external identity to a user account.
type AuthProfile struct {
	UserID       int64
	Provider     string
	AuthID       string
	AuthCode     string
	AuthDetail   string
	RefreshToken string
}

// Subscription is the active subscription row returned by the
// [SubscriptionStore].
type Subscription struct {
	CreatedDate time.Time
	EndDate     time.Time
	Tier        int
}

// SubscriptionWindow is the formatted calendar window attached to session
// credentials when an active subscription exists.
type SubscriptionWindow struct {
	Start string
	End   string
}

// SessionCredentials is the authorization payload attached to a session:
// user identity, auth provenance, role and feature sets, and an optional
// subscription window. Role and feature accumulation is additive only;
// credentials are rebuilt whole whenever grants may have changed, never
// patched in place.
type SessionCredentials struct {
	UserID       int64
	Username     string
	AuthProvider string
	Subscription *SubscriptionWindow

	roles    map[string]struct{}
	features map[string]struct{}
}

// NewSessionCredentials initializes credentials from a user record with
// empty role and feature sets.
func NewSessionCredentials(user *UserRecord) *SessionCredentials {
	c := &SessionCredentials{
		roles:    make(map[string]struct{}),
		features: make(map[string]struct{}),
	}
	if user != nil {
		c.UserID = user.ID
		c.Username = user.Username
	}
	return c
}

// AddRoles adds roles to the set. Duplicates collapse.
func (c *SessionCredentials) AddRoles(roles ...string) {
	if c.roles == nil {
		c.roles = make(map[string]struct{})
	}
	for _, r := range roles {
		if r != "" {
			c.roles[r] = struct{}{}
		}
	}
}

// AddFeatures adds features to the set. Duplicates collapse.
func (c *SessionCredentials) AddFeatures(features ...string) {
	if c.features == nil {
		c.features = make(map[string]struct{})
	}
	for _, f := range features {
		if f != "" {
			c.features[f] = struct{}{}
		}
	}
}

// HasRole reports set membership.
func (c *SessionCredentials) HasRole(role string) bool {
	if c == nil {
		return false
	}
	_, ok := c.roles[role]
	return ok
}

// HasFeature reports set membership.
func (c *SessionCredentials) HasFeature(feature string) bool {
	if c == nil {
		return false
	}
	_, ok := c.features[feature]
	return ok
}

// Roles returns a sorted copy of the role set.
func (c *SessionCredentials) Roles() []string {
	return sortedSet(c.roles)
}

// Features returns a sorted copy of the feature set.
func (c *SessionCredentials) Features() []string {
	return sortedSet(c.features)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Outcome is the terminal result of a successful authentication callback:
// where the surrounding handler should redirect the user agent.
type Outcome struct {
	Redirect string
}

// UserStore is the persisted account collaborator. Lookup methods return
// (nil, nil) when no record matches; errors are reserved for backend
// failures.
type UserStore interface {
	ByID(ctx context.Context, id int64) (*UserRecord, error)
	ByAuthID(ctx context.Context, authID, provider string) (*UserRecord, error)
	IsEmailTaken(ctx context.Context, email string, excludeUserID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status UserStatus) error
	AuthProfile(ctx context.Context, userID int64, provider string) (*AuthProfile, error)
	UpdateAuthProfile(ctx context.Context, userID int64, provider, authCode, authDetail string) error
	RemoveAuthProfile(ctx context.Context, userID int64, provider string) error
	AddAuthProfile(ctx context.Context, profile AuthProfile) error
	AuthProviderLinked(ctx context.Context, authID, provider string) (bool, error)
}

// RoleFeatureStore looks up the persisted grants for a user.
type RoleFeatureStore interface {
	RolesOf(ctx context.Context, userID int64) ([]string, error)
	FeaturesOf(ctx context.Context, userID int64) ([]string, error)
}

// SubscriptionStore looks up the active subscription for a user, or
// (nil, nil) when none is active.
type SubscriptionStore interface {
	ActiveSubscription(ctx context.Context, userID int64) (*Subscription, error)
}

// Crypto is the symmetric encryption collaborator used for the remember-me
// token. The consumer controls serialization on both sides; Encrypt and
// Decrypt deal only in opaque bytes. crypto.SecretBox is the shipped
// implementation.
type Crypto interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Cache is the TTL key-value collaborator backing the update flag.
// Fetch returns ("", nil) on a miss. cache.Redis is the shipped
// implementation.
type Cache interface {
	Save(ctx context.Context, key, value string, ttl time.Duration) error
	Fetch(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionState is the narrow mutable handle over one request's session,
// owned by the surrounding handler and passed into each Engine operation.
// One-shot values are read-and-clear: a second read returns "".
// RedisSessionState is the shipped implementation.
type SessionState interface {
	HasCookie() bool
	Start(ctx context.Context) bool
	HasRole(role string) bool
	SessionID() string
	Renew(ctx context.Context, newID bool) error
	InstallCredentials(ctx context.Context, creds *SessionCredentials) error
	Credentials() *SessionCredentials
	GetOneShot(ctx context.Context, key string) string
	Set(ctx context.Context, key, value string) error
}

// ChatSessionMirror keeps a secondary chat subsystem's session state in
// sync with credential changes. All three calls are idempotent; the
// orchestrator may notify twice for the same logical change (once from the
// flagging caller, once from the affected session's next resume).
type ChatSessionMirror interface {
	RenewExpiration(ctx context.Context, sessionID string) error
	SetSession(ctx context.Context, creds *SessionCredentials, sessionID string) error
	RefreshUserSession(ctx context.Context, creds *SessionCredentials) error
}
