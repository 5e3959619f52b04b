package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDescription  ErrorCode = "INVALID_DESCRIPTION"
	ErrCodeInvalidEmployeeCode ErrorCode = "INVALID_EMPLOYEE_CODE"
	ErrCodeWeakPassword        ErrorCode = "WEAK_PASSWORD"
	ErrCodeInvalidWindow       ErrorCode = "INVALID_WINDOW"
	ErrCodeEmptyPatch          ErrorCode = "EMPTY_PATCH"

	ErrCodeFaultNotFound   ErrorCode = "FAULT_NOT_FOUND"
	ErrCodeSectionNotFound ErrorCode = "SECTION_NOT_FOUND"
	ErrCodeMachineNotFound ErrorCode = "MACHINE_NOT_FOUND"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"

	ErrCodeDuplicateName         ErrorCode = "DUPLICATE_NAME"
	ErrCodeDuplicateUsername     ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmployeeCode ErrorCode = "DUPLICATE_EMPLOYEE_CODE"
	ErrCodeRoleImmutable         ErrorCode = "ROLE_IMMUTABLE"
	ErrCodeInUse                 ErrorCode = "RESOURCE_IN_USE"

	ErrCodeInvalidCredential      ErrorCode = "INVALID_CREDENTIAL"
	ErrCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeReferentialViolation   ErrorCode = "REFERENTIAL_VIOLATION"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeStoreUnavailable       ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeReportFailed           ErrorCode = "REPORT_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so freshly built errors
// compare equal to the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy carrying cause; sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStoreUnavailableError wraps a backing store failure, keeping the
// store's own message visible to the caller.
func NewStoreUnavailableError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeStoreUnavailable,
		Message:    "record store unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredential = NewUnauthorizedError("invalid or expired credential", ErrCodeInvalidCredential)
	ErrPermissionDenied  = NewForbiddenError("actor role does not allow this operation", ErrCodePermissionDenied)
	ErrInvalidTransition = NewConflictError("workflow does not allow this transition", ErrCodeInvalidStateTransition)
	ErrReferential       = &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeReferentialViolation,
		Message:    "machine does not belong to section",
		StatusCode: http.StatusUnprocessableEntity,
	}
	ErrConcurrentModification = NewConflictError("fault was modified concurrently, refetch and retry", ErrCodeConcurrentModification)
	ErrStoreUnavailable       = NewStoreUnavailableError(nil)

	ErrFaultNotFound   = NewNotFoundError("fault not found", ErrCodeFaultNotFound)
	ErrSectionNotFound = NewNotFoundError("section not found", ErrCodeSectionNotFound)
	ErrMachineNotFound = NewNotFoundError("machine not found", ErrCodeMachineNotFound)
	ErrUserNotFound    = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrEmptyPatch      = NewValidationError("patch does not change any field", ErrCodeEmptyPatch)
	ErrReportFailed    = &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeReportFailed,
		Message:    "report sink rejected the view",
		StatusCode: http.StatusBadGateway,
	}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorKind returns the code of the AppError in err's chain, or "" for
// anything else.
func ErrorKind(err error) ErrorCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	message := e.Message
	if e.Type == ErrorTypeExternal && e.Cause != nil {
		message = e.Error()
	}
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: message,
		Details: e.Details,
	})
}
