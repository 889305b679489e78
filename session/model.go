package session

import "github.com/google/uuid"

// Record is the server-side state for one session id. SessionID is the
// Redis key suffix and is not part of the encoded blob. A record with
// UserID 0 is anonymous; it exists only to carry Values across the
// login redirect dance.
type Record struct {
	SessionID string

	UserID       int64
	Username     string
	AuthProvider string
	Roles        []string
	Features     []string
	SubStart     string
	SubEnd       string

	// Values holds host-written session values, including the one-shot
	// markers consumed during an authentication callback.
	Values map[string]string

	CreatedAt int64
	ExpiresAt int64
}

// NewRecord returns an empty record under a fresh session id.
func NewRecord() *Record {
	return &Record{
		SessionID: NewID(),
		Values:    make(map[string]string),
	}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// HasRole reports role membership.
func (r *Record) HasRole(role string) bool {
	if r == nil {
		return false
	}
	for _, have := range r.Roles {
		if have == role {
			return true
		}
	}
	return false
}
