package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Store errors
	ErrNotFound       = fmt.Errorf("document not found")
	ErrEntryNotFound  = fmt.Errorf("entry not found")
	ErrDuplicateEntry = fmt.Errorf("entry already in watchlist")

	// External API errors
	ErrNetwork           = fmt.Errorf("network request failed")
	ErrMalformedResponse = fmt.Errorf("malformed response")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
