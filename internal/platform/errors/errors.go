package errors

import (
	stderrors "errors"
	"strconv"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/core/randomize"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error with metadata for message templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// From classifies err. Coded errors pass through; core errors are mapped to
// their codes with the metadata the message templates expect; anything
// else becomes CodeUnknown.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded
	}

	var slotErr *randomize.UnknownSlotError
	var paletteErr *randomize.UnknownPaletteError
	var malformed *parse.MalformedPromptError
	var loadErr *catalog.LoadError
	switch {
	case stderrors.As(err, &slotErr):
		return WrapWithMetadata(CodeUnknownSlot, err.Error(), map[string]string{"Slot": slotErr.Slot}, err)
	case stderrors.As(err, &paletteErr):
		return WrapWithMetadata(CodeUnknownPalette, err.Error(), map[string]string{"Palette": paletteErr.PaletteID}, err)
	case stderrors.Is(err, randomize.ErrInvalidColorMode):
		return Wrap(CodeInvalidColor, err.Error(), err)
	case stderrors.As(err, &malformed):
		return WrapWithMetadata(CodeMalformedPrompt, err.Error(), map[string]string{
			"Offset":   strconv.Itoa(malformed.Offset),
			"Position": strconv.Itoa(malformed.Position),
			"Segment":  malformed.Segment,
		}, err)
	case stderrors.Is(err, preset.ErrUnknownFormat):
		return Wrap(CodeInvalidFormat, err.Error(), err)
	case stderrors.As(err, &loadErr):
		return WrapWithMetadata(CodeCatalogInvalid, err.Error(), map[string]string{"Source": loadErr.Source}, err)
	default:
		return Wrap(CodeUnknown, err.Error(), err)
	}
}
