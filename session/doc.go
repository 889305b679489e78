// Package session ships the Redis-backed session record store. A record is
// the server-side state for one session id: the authorization payload plus a
// small bag of one-shot values. Records are stored as a compact versioned
// binary blob; see encoder.go for the layout.
package session
