package rememberme

import (
	"encoding/binary"
	"errors"
	"time"
)

// Token payload layout, before encryption:
//
//	[0]    version byte
//	[1:9]  user id, big-endian int64
//	[9:17] payload expiry, unix seconds, big-endian int64
const (
	tokenVersion = 1
	tokenSize    = 17
)

var (
	// ErrNoToken means the cookie carries no value at all.
	ErrNoToken = errors.New("no remember-me token")
	// ErrTokenInvalid means the token failed a structural check or could not
	// be decrypted. The cookie should be cleared.
	ErrTokenInvalid = errors.New("remember-me token invalid")
	// ErrTokenExpired means the payload expiry has passed. The cookie should
	// be cleared.
	ErrTokenExpired = errors.New("remember-me token expired")
)

type payload struct {
	UserID  int64
	Expires time.Time
}

func encodePayload(p payload) []byte {
	buf := make([]byte, tokenSize)
	buf[0] = tokenVersion
	binary.BigEndian.PutUint64(buf[1:9], uint64(p.UserID))
	binary.BigEndian.PutUint64(buf[9:17], uint64(p.Expires.Unix()))
	return buf
}

func decodePayload(buf []byte) (payload, error) {
	if len(buf) != tokenSize || buf[0] != tokenVersion {
		return payload{}, ErrTokenInvalid
	}

	p := payload{
		UserID:  int64(binary.BigEndian.Uint64(buf[1:9])),
		Expires: time.Unix(int64(binary.BigEndian.Uint64(buf[9:17])), 0),
	}
	if p.UserID <= 0 || p.Expires.IsZero() {
		return payload{}, ErrTokenInvalid
	}
	return p, nil
}
