package chat

import "errors"

// Sentinel errors the API boundary translates to status codes (404/400)
// or protocol error frames. Anything else coming out of the service is a
// store failure: terminal for that one operation, surfaced as a 500, and
// never retried here — the client decides whether to resend.
var (
	// ErrNotFound means the conversation doesn't resolve within the
	// caller's organization. Deliberately the same error whether the
	// thread doesn't exist at all or belongs to another tenant.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidInput covers malformed or disallowed fields: empty
	// content, unknown sender role or message type, bad conversation
	// shape on create.
	ErrInvalidInput = errors.New("invalid input")
)
