// Package apperr carries the error taxonomy shared by repositories, services and
// handlers. Codes are strings so they serialize naturally into API responses.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport-level translation.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeForbidden    Code = "FORBIDDEN"

	// CodeBusinessRule marks a write rejected by a domain rule before persistence.
	CodeBusinessRule Code = "BUSINESS_RULE_VIOLATION"

	CodeDatabase Code = "DATABASE_ERROR"
	CodeInternal Code = "INTERNAL_ERROR"
)

// Kind names the specific business rule that rejected a write.
type Kind string

const (
	KindNone                     Kind = ""
	KindCapacityExceeded         Kind = "capacity_exceeded"
	KindOverlappingTimeEntry     Kind = "overlapping_time_entry"
	KindDuplicateTimeEntry       Kind = "duplicate_time_entry"
	KindCyclicHierarchy          Kind = "cyclic_hierarchy"
	KindInvalidTemplateOperation Kind = "invalid_template_operation"
)

// Error is the structured error returned across package boundaries.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code and Kind so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != KindNone {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound                 = &Error{Code: CodeNotFound}
	ErrConflict                 = &Error{Code: CodeConflict}
	ErrInvalidInput             = &Error{Code: CodeInvalidInput}
	ErrBusinessRule             = &Error{Code: CodeBusinessRule}
	ErrCapacityExceeded         = &Error{Code: CodeBusinessRule, Kind: KindCapacityExceeded}
	ErrOverlappingTimeEntry     = &Error{Code: CodeBusinessRule, Kind: KindOverlappingTimeEntry}
	ErrDuplicateTimeEntry       = &Error{Code: CodeBusinessRule, Kind: KindDuplicateTimeEntry}
	ErrCyclicHierarchy          = &Error{Code: CodeBusinessRule, Kind: KindCyclicHierarchy}
	ErrInvalidTemplateOperation = &Error{Code: CodeBusinessRule, Kind: KindInvalidTemplateOperation}
)

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

func Rule(kind Kind, msg string) *Error {
	return &Error{Code: CodeBusinessRule, Kind: kind, Message: msg}
}

func CapacityExceeded() *Error {
	return Rule(KindCapacityExceeded, "Allocation would exceed capacity")
}

func OverlappingTimeEntry() *Error {
	return Rule(KindOverlappingTimeEntry, "Time entry overlaps with an existing entry for this user")
}

func DuplicateTimeEntry() *Error {
	return Rule(KindDuplicateTimeEntry, "This time entry already exists")
}

func CyclicHierarchy() *Error {
	return Rule(KindCyclicHierarchy, "Cannot set parent: this would create a circular hierarchy.")
}

func InvalidTemplateOperation() *Error {
	return Rule(KindInvalidTemplateOperation, "Cannot create project from non-template.")
}

// CodeOf returns the code of the first *Error in the chain, CodeInternal otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// KindOf returns the rule kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
