// Package session owns the authenticated identity carried across portal
// views: the bearer token, the username it was issued to, and the role tag
// attached at login.
//
// # Design
//
// The session lives in exactly one place — a [Store]. All three fields are
// written and cleared together; no reader ever observes a partially written
// session. Stores publish a change notification whenever the persisted
// session is replaced or cleared, which is how a logout performed in one
// process is observed by every other process holding the same store without
// polling.
//
// Two implementations are provided: [MemoryStore] for a single process (and
// as the documented degraded mode when persistent storage is unreachable),
// and [RedisStore], which persists the session and fans out change
// notifications over Redis pub/sub.
//
// # What this package must NOT do
//
//   - Interpret the role tag. Role semantics belong to package gate.
//   - Validate or decode the token. The backend owns token validity.
//   - Import the root ledgerclient package (no import cycles).
package session
