// Package businessflow contains the core business logic and use cases for link tracking workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Link-related errors
	ErrLinkNotFound = errors.New("link not found")
	ErrInvalidURL   = errors.New("invalid destination URL")

	// Slug allocation errors
	ErrInvalidSlug             = errors.New("invalid slug")
	ErrReservedSlug            = errors.New("slug is reserved")
	ErrSlugTaken               = errors.New("slug already in use")
	ErrSlugAllocationExhausted = errors.New("slug allocation exhausted")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsLinkNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

func IsInvalidURL(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

func IsInvalidSlug(err error) bool {
	return errors.Is(err, ErrInvalidSlug)
}

func IsReservedSlug(err error) bool {
	return errors.Is(err, ErrReservedSlug)
}

func IsSlugTaken(err error) bool {
	return errors.Is(err, ErrSlugTaken)
}

func IsSlugAllocationExhausted(err error) bool {
	return errors.Is(err, ErrSlugAllocationExhausted)
}
