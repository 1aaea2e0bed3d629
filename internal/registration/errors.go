package registration

import (
	"errors"
	"strings"
)

// ErrInternal marks unexpected failures (store connectivity, broken
// invariants) that must surface as 500s with a generic client message.
var ErrInternal = errors.New("internal error")

// ErrInvalidQRCode is returned when a scanned payload cannot be decoded or
// does not match any registration. Callers answer with a generic message.
var ErrInvalidQRCode = errors.New("invalid QR code")

// ErrNoQRCode is returned when a registration has no generated artifact yet.
var ErrNoQRCode = errors.New("registration has no QR code")

// ValidationError carries the itemized violations of a registration request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// BusinessRuleError is a capacity, duplicate or availability violation: the
// request was well-formed but the rules reject it.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}
