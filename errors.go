package ledgerclient

import "errors"

var (
	// ErrActionInFlight is returned when a logical action is triggered
	// while the previous call of the same action is still outstanding.
	// No network call is issued for the rejected trigger.
	ErrActionInFlight = errors.New("action already in flight")
	// ErrInputRequired is returned before any network call when a
	// required input is empty after trimming.
	ErrInputRequired = errors.New("required input missing")
	// ErrAuthRequired is returned when an endpoint that declares
	// authentication mandatory is called without a stored token.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAdminRoleRequired is returned by admin-only operations when the
	// current session does not carry the admin role tag.
	ErrAdminRoleRequired = errors.New("admin role required")
	// ErrMissingToken is returned when a login response reports success
	// but carries no token.
	ErrMissingToken = errors.New("login succeeded but no token was returned by the server")
	// ErrPasswordTooShort is returned when a new password fails the
	// client-side minimum length check.
	ErrPasswordTooShort = errors.New("new password must be at least 8 characters")
	// ErrInvalidEmail is returned when a registration email fails the
	// client-side format check.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrClientClosed is returned by calls made after Close.
	ErrClientClosed = errors.New("client closed")
)
