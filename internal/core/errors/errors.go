package errors

import "errors"

// Client-visible error messages. These are wire contract: the browser widget
// matches on them, so the exact wording and casing must not change.
const (
	MsgFeatureNotFound = "Feature not found"
	MsgMissingCookies  = "Missing cookies"
	MsgInvalidToken    = "Invalid timestamp, cannot decrypt"
	MsgWindowExpired   = "Time to submit a comment has elapsed"
	MsgProjectNotFound = "Project not found"
	MsgInternal        = "Internal server error"
)

// Sentinel errors for the trigger/window flow. All four are expected outcomes
// of untrusted client state, never server faults, and must never surface as 5xx.
var (
	// ErrFeatureNotFound: the client referenced a feature with no configured rule.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrMissingCookies: the submission endpoint was called without the
	// user_id or timestamp cookie set by a prior trigger call.
	ErrMissingCookies = errors.New("missing cookies")

	// ErrInvalidToken: a timestamp token was presented but fails authenticated
	// decryption. Distinct from an absent token, which is not an error.
	ErrInvalidToken = errors.New("invalid timestamp token")

	// ErrWindowExpired: the token decrypted fine but the answer window has passed.
	ErrWindowExpired = errors.New("answer window elapsed")
)

// ErrorResponse is the error response body for all client-visible failures.
type ErrorResponse struct {
	Error string `json:"Error"`
}
