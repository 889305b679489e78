package authflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/calebhart/authflow/crypto"
)

/* ==== user store ==== */

type mockUserStore struct {
	users    map[int64]*UserRecord
	byAuth   map[string]int64
	profiles map[string]*AuthProfile
	taken    map[string]int64

	removedProfiles []string
	addedProfiles   []AuthProfile
	statusUpdates   map[int64]UserStatus
	profileUpdates  []string

	err error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:         make(map[int64]*UserRecord),
		byAuth:        make(map[string]int64),
		profiles:      make(map[string]*AuthProfile),
		taken:         make(map[string]int64),
		statusUpdates: make(map[int64]UserStatus),
	}
}

func authKey(authID, provider string) string {
	return authID + "|" + provider
}

func profileKey(userID int64, provider string) string {
	return fmt.Sprintf("%d|%s", userID, provider)
}

func (m *mockUserStore) addUser(user UserRecord) {
	u := user
	m.users[u.ID] = &u
}

func (m *mockUserStore) linkAuth(userID int64, authID, provider string) {
	m.byAuth[authKey(authID, provider)] = userID
	m.profiles[profileKey(userID, provider)] = &AuthProfile{
		UserID:   userID,
		Provider: provider,
		AuthID:   authID,
	}
}

func (m *mockUserStore) ByID(_ context.Context, id int64) (*UserRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserStore) ByAuthID(_ context.Context, authID, provider string) (*UserRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.byAuth[authKey(authID, provider)]
	if !ok {
		return nil, nil
	}
	return m.users[id], nil
}

func (m *mockUserStore) IsEmailTaken(_ context.Context, email string, excludeUserID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	owner, ok := m.taken[email]
	return ok && owner != excludeUserID, nil
}

func (m *mockUserStore) UpdateStatus(_ context.Context, id int64, status UserStatus) error {
	m.statusUpdates[id] = status
	if u, ok := m.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (m *mockUserStore) AuthProfile(_ context.Context, userID int64, provider string) (*AuthProfile, error) {
	return m.profiles[profileKey(userID, provider)], nil
}

func (m *mockUserStore) UpdateAuthProfile(_ context.Context, userID int64, provider, authCode, authDetail string) error {
	m.profileUpdates = append(m.profileUpdates, profileKey(userID, provider))
	if p, ok := m.profiles[profileKey(userID, provider)]; ok {
		p.AuthCode = authCode
		p.AuthDetail = authDetail
	}
	return nil
}

func (m *mockUserStore) RemoveAuthProfile(_ context.Context, userID int64, provider string) error {
	m.removedProfiles = append(m.removedProfiles, profileKey(userID, provider))
	delete(m.profiles, profileKey(userID, provider))
	return nil
}

func (m *mockUserStore) AddAuthProfile(_ context.Context, profile AuthProfile) error {
	m.addedProfiles = append(m.addedProfiles, profile)
	m.profiles[profileKey(profile.UserID, profile.Provider)] = &profile
	m.byAuth[authKey(profile.AuthID, profile.Provider)] = profile.UserID
	return nil
}

func (m *mockUserStore) AuthProviderLinked(_ context.Context, authID, provider string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.byAuth[authKey(authID, provider)]
	return ok, nil
}

/* ==== grants and subscriptions ==== */

type mockRoleFeatureStore struct {
	roles    map[int64][]string
	features map[int64][]string
	err      error
}

func newMockRoleFeatureStore() *mockRoleFeatureStore {
	return &mockRoleFeatureStore{
		roles:    make(map[int64][]string),
		features: make(map[int64][]string),
	}
}

func (m *mockRoleFeatureStore) RolesOf(_ context.Context, userID int64) ([]string, error) {
	return m.roles[userID], m.err
}

func (m *mockRoleFeatureStore) FeaturesOf(_ context.Context, userID int64) ([]string, error) {
	return m.features[userID], m.err
}

type mockSubscriptionStore struct {
	subs map[int64]*Subscription
	err  error
}

func newMockSubscriptionStore() *mockSubscriptionStore {
	return &mockSubscriptionStore{subs: make(map[int64]*Subscription)}
}

func (m *mockSubscriptionStore) ActiveSubscription(_ context.Context, userID int64) (*Subscription, error) {
	return m.subs[userID], m.err
}

/* ==== cache ==== */

type mockCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockCache) Save(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Fetch(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	delete(m.ttls, key)
	return nil
}

/* ==== chat mirror ==== */

type mockChatMirror struct {
	renewed   []string
	sessions  map[string]*SessionCredentials
	refreshed []int64
	err       error
}

func newMockChatMirror() *mockChatMirror {
	return &mockChatMirror{sessions: make(map[string]*SessionCredentials)}
}

func (m *mockChatMirror) RenewExpiration(_ context.Context, sessionID string) error {
	m.renewed = append(m.renewed, sessionID)
	return m.err
}

func (m *mockChatMirror) SetSession(_ context.Context, creds *SessionCredentials, sessionID string) error {
	m.sessions[sessionID] = creds
	return m.err
}

func (m *mockChatMirror) RefreshUserSession(_ context.Context, creds *SessionCredentials) error {
	m.refreshed = append(m.refreshed, creds.UserID)
	return m.err
}

/* ==== session state ==== */

type mockSessionState struct {
	cookie  bool
	startOK bool
	started bool
	id      string

	creds  *SessionCredentials
	values map[string]string

	renewCalls  int
	renewNewID  bool
	renewErr    error
	installed   []*SessionCredentials
	installErr  error
	setValues   map[string]string
	oneShotRead []string
}

func newMockSessionState() *mockSessionState {
	return &mockSessionState{
		startOK:   true,
		id:        "sess-1",
		values:    make(map[string]string),
		setValues: make(map[string]string),
	}
}

func (m *mockSessionState) HasCookie() bool { return m.cookie }

func (m *mockSessionState) Start(context.Context) bool {
	if !m.startOK {
		return false
	}
	m.started = true
	return true
}

func (m *mockSessionState) HasRole(role string) bool {
	return m.creds.HasRole(role)
}

func (m *mockSessionState) SessionID() string { return m.id }

func (m *mockSessionState) Renew(_ context.Context, newID bool) error {
	if m.renewErr != nil {
		return m.renewErr
	}
	m.renewCalls++
	m.renewNewID = newID
	if newID {
		m.id = m.id + "-renewed"
	}
	return nil
}

func (m *mockSessionState) InstallCredentials(_ context.Context, creds *SessionCredentials) error {
	if m.installErr != nil {
		return m.installErr
	}
	m.creds = creds
	m.installed = append(m.installed, creds)
	return nil
}

func (m *mockSessionState) Credentials() *SessionCredentials { return m.creds }

func (m *mockSessionState) GetOneShot(_ context.Context, key string) string {
	m.oneShotRead = append(m.oneShotRead, key)
	value := m.values[key]
	delete(m.values, key)
	return value
}

func (m *mockSessionState) Set(_ context.Context, key, value string) error {
	m.setValues[key] = value
	return nil
}

/* ==== remember-me cookie ==== */

type mockCookie struct {
	value   string
	expires time.Time
	sets    int
	clears  int
}

func (c *mockCookie) Value() string { return c.value }

func (c *mockCookie) Set(value string, expires time.Time) {
	c.value = value
	c.expires = expires
	c.sets++
}

func (c *mockCookie) Clear() {
	c.value = ""
	c.clears++
}

/* ==== engine wiring ==== */

type testEnv struct {
	engine *Engine
	users  *mockUserStore
	grants *mockRoleFeatureStore
	subs   *mockSubscriptionStore
	cache  *mockCache
	chat   *mockChatMirror
}

func testCipher(t *testing.T) *crypto.SecretBox {
	t.Helper()

	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	box, err := crypto.NewSecretBox(key)
	if err != nil {
		t.Fatalf("secretbox init failed: %v", err)
	}
	return box
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	env := &testEnv{
		users:  newMockUserStore(),
		grants: newMockRoleFeatureStore(),
		subs:   newMockSubscriptionStore(),
		cache:  newMockCache(),
		chat:   newMockChatMirror(),
	}

	engine, err := New().
		WithConfig(cfg).
		WithUserStore(env.users).
		WithRoleFeatureStore(env.grants).
		WithSubscriptionStore(env.subs).
		WithCache(env.cache).
		WithCipher(testCipher(t)).
		WithChatMirror(env.chat).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}

	env.engine = engine
	t.Cleanup(engine.Close)
	return env
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, defaultConfig())
}

// loggedInCreds installs a minimal USER session payload.
func loggedInCreds(userID int64, username string) *SessionCredentials {
	creds := NewSessionCredentials(&UserRecord{ID: userID, Username: username})
	creds.AddRoles(RoleUser)
	return creds
}
