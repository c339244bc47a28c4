package dto

import (
	"net/http"
	"strings"
)

// API error codes use the ERR_<DESCRIPTION> form
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE" // database or cache down

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	ErrCodeNoTenant     = "ERR_TENANT_REQUIRED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
)

// Fiscal codes raised by the domain. They reach clients unchanged so an
// unknown NCM can be told apart from an invalid UF.
const (
	CodeEmptyOrder           = "EMPTY_ORDER"
	CodeTaxesNotCalculated   = "TAXES_NOT_CALCULATED"
	CodeNCMNotFound          = "NCM_NOT_FOUND"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeInvalidNCM           = "INVALID_NCM"
	CodeInvalidStateCode     = "INVALID_STATE_CODE"
	CodeInvalidRate          = "INVALID_RATE"
	CodeInvalidPeriod        = "INVALID_PERIOD"
	CodeInvalidExemptionKind = "INVALID_EXEMPTION_KIND"
)

var statusByCode = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeUnavailable:   http.StatusServiceUnavailable,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeBodyTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeTokenExpired:  http.StatusUnauthorized,
	ErrCodeTokenInvalid:  http.StatusUnauthorized,
	ErrCodeTokenRevoked:  http.StatusUnauthorized,
	ErrCodeNoTenant:      http.StatusUnauthorized,
	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	CodeEmptyOrder:         http.StatusUnprocessableEntity,
	CodeTaxesNotCalculated: http.StatusUnprocessableEntity,
}

// HTTPStatus returns the status for an error code. Fiscal codes without an
// entry follow their naming: *_NOT_FOUND is 404 and INVALID_* is 400.
// Anything else is 500.
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// sharedCodes are the generic codes of the shared kernel
var sharedCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INVALID_STATE":        ErrCodeInvalidState,
}

// NormalizeErrorCode rewrites a shared kernel code to its ERR_ form.
// Fiscal codes and ERR_ codes are returned as is.
func NormalizeErrorCode(code string) string {
	if normalized, ok := sharedCodes[code]; ok {
		return normalized
	}
	return code
}
