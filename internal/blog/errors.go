package blog

import (
	"errors"
	"fmt"
)

// Sentinel kinds matched with errors.Is. The concrete error values below
// carry the client-facing message.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// NotFoundError reports a missing post or category.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string        { return e.Message }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a write that collides with an existing record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError reports input the service refuses to store. Err, when set,
// is the underlying rule (for example lifecycle.ErrSlugImmutable).
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InUseError refuses deletion of a category that still has posts.
type InUseError struct {
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("Cannot delete category with %d blog(s). Please reassign or delete the blogs first.", e.Count)
}

var (
	errPostNotFound     = &NotFoundError{Message: "Blog not found"}
	errCategoryNotFound = &NotFoundError{Message: "Category not found"}
)
