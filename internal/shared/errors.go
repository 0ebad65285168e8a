package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and session errors
	ErrAuth             = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoSession        = fmt.Errorf("no active session")
	ErrNotLinked        = fmt.Errorf("music account not linked")

	ErrTimeout = fmt.Errorf("operation timed out")

	// Backend and stream errors
	ErrBackend         = fmt.Errorf("backend request failed")
	ErrStream          = fmt.Errorf("stream transport failed")
	ErrMalformedResult = fmt.Errorf("malformed result payload")
	ErrBackendSignaled = fmt.Errorf("backend signaled error")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
