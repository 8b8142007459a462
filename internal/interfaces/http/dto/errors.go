package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain errors keep the code
// of the shared.DomainError they come from.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks rights
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource does not exist
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeTooManyRequests is used when a rate limit is exceeded
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	// ErrCodeFileTooLarge is used when the request body is over the limit
	ErrCodeFileTooLarge = "FILE_TOO_LARGE"
	// ErrCodeTokenExpired is used for an expired access token
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used for a malformed or badly signed token
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	// ErrCodeTokenRevoked is used for a blacklisted token
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
	// ErrCodeTenantNotFound is used when no tenant matches the request
	ErrCodeTenantNotFound = "TENANT_NOT_FOUND"
	// ErrCodeTenantInactive is used when the tenant is not active
	ErrCodeTenantInactive = "TENANT_INACTIVE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	"INVALID_INPUT":        http.StatusBadRequest,
	"PASSWORD_MISMATCH":    http.StatusBadRequest,
	"TENANT_CREATE_FAILED": http.StatusBadRequest,

	// 401 Unauthorized
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	ErrCodeTokenRevoked:   http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"TOKEN_ERROR":         http.StatusUnauthorized,

	// 403 Forbidden
	ErrCodeForbidden:       http.StatusForbidden,
	"SALESPERSON_REQUIRED": http.StatusForbidden,
	"ACCOUNT_PENDING":      http.StatusForbidden,
	"ACCOUNT_DEACTIVATED":  http.StatusForbidden,
	"ACCOUNT_LOCKED":       http.StatusForbidden,
	"ACCOUNT_INACTIVE":     http.StatusForbidden,
	ErrCodeTenantInactive:  http.StatusForbidden,
	"CANNOT_DELETE_SELF":   http.StatusForbidden,

	// 404 Not Found
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeTenantNotFound: http.StatusNotFound,
	"USER_NOT_FOUND":      http.StatusNotFound,

	// 409 Conflict
	"ALREADY_EXISTS":        http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"DEAL_STATUS_DUPLICATE": http.StatusConflict,
	"SALESPERSON_EXISTS":    http.StatusConflict,
	"PRODUCT_IN_USE":        http.StatusConflict,

	// 410 Gone
	"ACTIVATION_KEY_EXPIRED": http.StatusGone,

	// 413 Request Entity Too Large
	ErrCodeFileTooLarge: http.StatusRequestEntityTooLarge,

	// 429 Too Many Requests
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes not listed fall into a family by their shape: INVALID_* is a 400,
// *_TAKEN and *_EXISTS are a 409, *_NOT_FOUND a 404. Any other domain code
// is a broken business rule and answers 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_TAKEN"), strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

// Localizer resolves the message of an error code in a language
type Localizer interface {
	Has(key string) bool
	T(lang, key string, args ...any) string
}

// LocalizedMessage returns the catalog message of the code in lang, or
// fallback when the catalog has none
func LocalizedMessage(l Localizer, lang, code, fallback string) string {
	if l == nil || code == "" {
		return fallback
	}
	key := "error." + code
	if !l.Has(key) {
		return fallback
	}
	return l.T(lang, key)
}
