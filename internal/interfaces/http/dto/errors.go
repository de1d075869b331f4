package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeMissingAccount is used when a perception tax has no ledger account
	ErrCodeMissingAccount = "ERR_MISSING_ACCOUNT"
	// ErrCodeClassificationUnavailable is used when the company has no fiscal data
	ErrCodeClassificationUnavailable = "ERR_FISCAL_CLASSIFICATION_UNAVAILABLE"
)

// Dependency error codes
const (
	// ErrCodePerceptionUnavailable is used when an edit cannot be reconciled
	// because a lookup it depends on failed
	ErrCodePerceptionUnavailable = "ERR_PERCEPTION_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:              http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:              http.StatusUnprocessableEntity,
	ErrCodeMissingAccount:            http.StatusUnprocessableEntity,
	ErrCodeClassificationUnavailable: http.StatusUnprocessableEntity,

	ErrCodePerceptionUnavailable: http.StatusServiceUnavailable,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                         ErrCodeNotFound,
	"ALREADY_EXISTS":                    ErrCodeAlreadyExists,
	"INVALID_INPUT":                     ErrCodeInvalidInput,
	"INVALID_STATE":                     ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":              ErrCodeConcurrencyConflict,
	"MISSING_ACCOUNT":                   ErrCodeMissingAccount,
	"FISCAL_CLASSIFICATION_UNAVAILABLE": ErrCodeClassificationUnavailable,
	"PERCEPTION_RECALCULATION_FAILED":   ErrCodePerceptionUnavailable,
	"INVALID_KIND":                      ErrCodeBadRequest,
	"INVALID_MOVE_TYPE":                 ErrCodeBadRequest,
	"INVALID_PARTY":                     ErrCodeInvalidInput,
	"INVALID_PRODUCT":                   ErrCodeInvalidInput,
	"INVALID_QUANTITY":                  ErrCodeInvalidInput,
	"INVALID_PRICE":                     ErrCodeInvalidInput,
	"INVALID_NUMBER":                    ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown domain codes are business rule violations.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeBusinessRule
}
