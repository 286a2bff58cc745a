// Package domain holds the core entities, invariants, and the
// MappedError taxonomy shared by every other Mycelium package.
package domain

import "fmt"

// Kind classifies a MappedError so callers (HTTP handlers, gateway,
// dispatcher) can react without inspecting the message string.
type Kind string

const (
	KindCreation          Kind = "Creation"
	KindUpdating          Kind = "Updating"
	KindFetching          Kind = "Fetching"
	KindDeletion          Kind = "Deletion"
	KindUseCase           Kind = "UseCase"
	KindExecution         Kind = "Execution"
	KindInvalidRepository Kind = "InvalidRepository"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindDto               Kind = "Dto"
	KindAuthentication    Kind = "Authentication"
	KindAuthorization     Kind = "Authorization"
)

// Code is one of the MYCxxxxx registry entries from spec §7.
type Code string

const (
	CodeInfra                    Code = "MYC00001"
	CodeUserAlreadyExists        Code = "MYC00002"
	CodeDuplicateEntity          Code = "MYC00003"
	CodeUserNotFound             Code = "MYC00009"
	CodeNotificationFailed       Code = "MYC00010"
	CodePasswordEqualsOld        Code = "MYC00011"
	CodeMissingRawPassword       Code = "MYC00012"
	CodeGuestTargetNotFound      Code = "MYC00013"
	CodeConflictVariantA         Code = "MYC00016"
	CodeConflictVariantB         Code = "MYC00017"
	CodeConflictVariantC         Code = "MYC00018"
	CodeAuthorizationRefused     Code = "MYC00019"
	CodeMultipleTokensMatched    Code = "MYC00020"
	CodeTOTPAlreadyEnabled       Code = "MYC00021"
	CodeTOTPNotEnabled           Code = "MYC00022"
	CodeTOTPInvalidCode          Code = "MYC00023"
)

// MappedError is the only error shape use cases and repository adapters
// are allowed to return across a port boundary (spec §4.2/§7). Repository
// errors are mapped into one of these immediately; nothing upstream ever
// sees a raw driver error.
type MappedError struct {
	Kind        Kind
	Code        *Code
	UserVisible bool
	Message     string
}

func (e *MappedError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, *e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewMappedError builds a MappedError with an optional code.
func NewMappedError(kind Kind, userVisible bool, code *Code, format string, args ...any) *MappedError {
	return &MappedError{
		Kind:        kind,
		Code:        code,
		UserVisible: userVisible,
		Message:     fmt.Sprintf(format, args...),
	}
}

func withCode(c Code) *Code { return &c }

// Convenience constructors mirroring the repository-port error kinds in
// spec §4.2. Each keeps the "code, user_visible" pair that upstream HTTP
// handlers rely on to pick a status code.
func CreationErr(userVisible bool, format string, args ...any) *MappedError {
	return NewMappedError(KindCreation, userVisible, nil, format, args...)
}

func FetchingErr(userVisible bool, format string, args ...any) *MappedError {
	return NewMappedError(KindFetching, userVisible, nil, format, args...)
}

func UpdatingErr(userVisible bool, format string, args ...any) *MappedError {
	return NewMappedError(KindUpdating, userVisible, nil, format, args...)
}

func DeletionErr(userVisible bool, format string, args ...any) *MappedError {
	return NewMappedError(KindDeletion, userVisible, nil, format, args...)
}

func UseCaseErr(format string, args ...any) *MappedError {
	return NewMappedError(KindUseCase, true, nil, format, args...)
}

func UseCaseErrWithCode(code Code, format string, args ...any) *MappedError {
	return NewMappedError(KindUseCase, true, withCode(code), format, args...)
}

func ExecutionErr(format string, args ...any) *MappedError {
	return NewMappedError(KindExecution, false, nil, format, args...)
}

func InvalidArgumentErr(format string, args ...any) *MappedError {
	return NewMappedError(KindInvalidArgument, true, withCode(CodeAuthorizationRefused), format, args...)
}

// UserNotFoundErr is the canonical MYC00009 mapping (spec §4.5 step 1).
func UserNotFoundErr(email string) *MappedError {
	return NewMappedError(KindFetching, true, withCode(CodeUserNotFound), "user not found: %s", email)
}

// ForbiddenErr is the canonical MYC00019 mapping (spec §4.6 terminal check).
func ForbiddenErr(format string, args ...any) *MappedError {
	return NewMappedError(KindAuthorization, true, withCode(CodeAuthorizationRefused), format, args...)
}
