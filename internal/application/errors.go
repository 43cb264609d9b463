package application

import "errors"

var (
	// ErrUnauthorized is returned when no valid session backs the request.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the principal may not touch the target resource.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist or belongs to another user.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when a username and password do not match.
	ErrInvalidCredentials = errors.New("application: invalid username or password")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for sessions that were logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// orNil returns v when it carries errors and nil otherwise.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
