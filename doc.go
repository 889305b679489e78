// Package authflow is the authentication and session orchestration core of a
// web identity provider. It validates identity inputs, builds authorization
// credentials from stored user state, manages a long-lived remember-me token
// independent of the short-lived session, merges accounts when a user links a
// second external identity, and coordinates a deferred update flag so that
// privilege changes reach an active session without forcing re-login.
//
// The package is a library: it owns no routes and renders no output. A
// surrounding request handler adapts its session and cookie state to the
// [SessionState] and remember-me cookie contracts and calls [Engine] entry
// points. Engine methods are safe for concurrent use after initialization
// through [Builder.Build]; cross-request consistency for the same user relies
// on the collaborators' own atomic read-then-write operations.
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Engine], [Builder], [Config],
// value types, and the collaborator contracts (user store, role/feature
// lookup, subscription lookup, cache, session state, chat-session mirror,
// symmetric cipher). Shipped collaborator implementations live in the cache,
// session, and crypto subpackages; hosts may substitute their own.
//
// # What this package must NOT do
//
//   - Hash or store passwords, enforce rate limits, or perform the external
//     provider OAuth handshake. It consumes already-validated credentials.
//   - Mutate a credentials object installed in a live session. Credentials
//     are rebuilt whole and swapped in one atomic install.
package authflow
