// Package rememberme manages the durable login token carried in its own
// cookie, independent of the short-lived session cookie. The token is an
// opaque symmetric-encrypted blob naming a user id and a payload expiry; the
// payload expiry is authoritative and is checked on every resolve regardless
// of the cookie's own transport expiry.
//
// The package deals only in the token lifecycle. Loading the user record for
// a resolved id, building credentials, and installing them in a session are
// the caller's concern.
package rememberme
