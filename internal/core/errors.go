package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Validation(msg string) error { return &ValidationError{Message: msg} }

func NotFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

func Conflict(msg string) error { return &ConflictError{Message: msg} }

// DuplicateCategory is the conflict returned when a category name is taken.
func DuplicateCategory(name string) error {
	return Conflict(fmt.Sprintf("Category %q already exists", name))
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
