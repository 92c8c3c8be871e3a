// Package apperror defines the caller-facing error taxonomy.
//
// Every rejection the domain can produce is an *AppError wrapping one of the
// sentinel errors below. Handlers map the sentinel to an HTTP status with
// errors.Is and report Code so clients can tell, say, a duplicate favourite
// from a missing recipe without parsing the message.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Code is the machine-readable reason attached to an AppError.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeValidation          Code = "validation_error"
	CodeConflict            Code = "conflict"
	CodeForbidden           Code = "forbidden"
	CodeUnauthorized        Code = "unauthorized"
	CodeSelfReference       Code = "self_reference"
	CodeDuplicateRelation   Code = "duplicate_relation"
	CodeInvalidCookingTime  Code = "invalid_cooking_time"
	CodeMissingTags         Code = "missing_tags"
	CodeDuplicateTag        Code = "duplicate_tag"
	CodeMissingIngredients  Code = "missing_ingredients"
	CodeUnknownIngredient   Code = "unknown_ingredient"
	CodeDuplicateIngredient Code = "duplicate_ingredient"
	CodeInvalidAmount       Code = "invalid_amount"
	CodeUnknownTag          Code = "unknown_tag"
)

// Violation is one independently detected problem with a submitted value.
type Violation struct {
	Code    Code   `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type AppError struct {
	Err        error  // sentinel, see the Err* variables
	Code       Code   // machine-readable reason
	Message    string // human-readable error message
	Field      string // optional: field causing the error
	Violations []Violation
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is an AppError carrying code, either as its
// own Code or as one of its violations.
func HasCode(err error, code Code) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Code == code {
		return true
	}
	for _, v := range appErr.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// AlreadyExists reports a unique field taken by another record.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s with %s %s already exists", resource, field, value),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// Unauthorized is returned for missing or wrong credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// SelfReference rejects a relation whose two ends are the same user.
func SelfReference(relation string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeSelfReference,
		Message: fmt.Sprintf("cannot create %s to yourself", relation),
	}
}

// DuplicateRelation rejects a relation that already exists.
func DuplicateRelation(relation string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeDuplicateRelation,
		Message: fmt.Sprintf("%s already exists", relation),
	}
}

// RelationNotFound rejects a delete of a relation that does not exist.
func RelationNotFound(relation string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s does not exist", relation),
	}
}

// Rejected bundles every violation found in one submission. The message joins
// the individual messages so logs stay readable.
func Rejected(violations []Violation) *AppError {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return &AppError{
		Err:        ErrValidation,
		Code:       CodeValidation,
		Message:    strings.Join(msgs, "; "),
		Violations: violations,
	}
}
