package simpleblog

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Service that is recoverable at the
// request boundary matches exactly one of these with errors.Is.
var (
	// ErrValidation indicates a required field was empty
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the actor does not own the resource
	ErrForbidden = errors.New("forbidden")
)

// Specific not-found errors
var (
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

// ErrUserExists indicates a user name is already taken
var ErrUserExists = errors.New("user already exists")

// ValidationError reports the first empty required field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Required returns a ValidationError for an empty field
func Required(field string) error {
	return &ValidationError{Field: field}
}

// PostError represents a store failure during a post operation
type PostError struct {
	PostID string
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// CommentError represents a store failure during a comment operation
type CommentError struct {
	CommentID string
	Op        string
	Err       error
}

func (e *CommentError) Error() string {
	return fmt.Sprintf("comment operation %s failed for comment %s: %v", e.Op, e.CommentID, e.Err)
}

func (e *CommentError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is one of the request-level error kinds
// (validation, not found, forbidden) rather than a store fault.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}
