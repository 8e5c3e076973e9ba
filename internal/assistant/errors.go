package assistant

import "errors"

// The orchestrator exposes a closed set of failure results. Handlers map
// these to HTTP statuses; the text doubles as the user-visible error string.
var (
	// ErrUnauthorized means the request carried no resolvable caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyMessage rejects blank or whitespace-only input.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMessageTooLong rejects input above MaxMessageLength characters.
	ErrMessageTooLong = errors.New("message too long (max 1000 characters)")

	// ErrContextUnavailable means the financial snapshot could not be
	// assembled: unknown user or record store failure, collapsed into one
	// outcome.
	ErrContextUnavailable = errors.New("failed to load financial data")

	// ErrUserNotFound means the caller resolved to no internal user record.
	ErrUserNotFound = errors.New("user not found")

	// ErrSendFailed is the generic terminal failure for anything unexpected
	// past validation; the caller never sees a raw transport error.
	ErrSendFailed = errors.New("failed to send message")
)
