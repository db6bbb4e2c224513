// Package errors provides coded errors that transports render as localized
// user messages.
package errors

import "net/http"

// Code is a machine-readable error code. Codes double as keys in the
// "errors" namespace of the UI string bundle.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeRateLimited    Code = "RATE_LIMITED"

	// Slot and catalog errors
	CodeUnknownSlot    Code = "UNKNOWN_SLOT"
	CodeUnknownPalette Code = "UNKNOWN_PALETTE"
	CodeInvalidColor   Code = "INVALID_COLOR_MODE"
	CodeCatalogInvalid Code = "CATALOG_INVALID"

	// Parse errors
	CodeMalformedPrompt Code = "MALFORMED_PROMPT"

	// Preset errors
	CodePresetNameEmpty Code = "PRESET_NAME_EMPTY"
	CodeInvalidFormat   Code = "PRESET_INVALID_FORMAT"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest,
		CodeUnknownSlot,
		CodeUnknownPalette,
		CodeInvalidColor,
		CodeMalformedPrompt,
		CodePresetNameEmpty,
		CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
