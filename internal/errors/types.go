package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents the category of a template processing failure.
type ErrorKind string

const (
	KindSyntax         ErrorKind = "syntax"
	KindUnexpectedEOF  ErrorKind = "unexpected_eof"
	KindModeValidation ErrorKind = "mode_validation"
	KindMode           ErrorKind = "mode"
	KindRange          ErrorKind = "range"
	KindConfiguration  ErrorKind = "configuration"
	KindLoader         ErrorKind = "loader"
)

// Error codes
const (
	ErrCodeInvalidSigil       = "ERR_INVALID_SIGIL"
	ErrCodeInvalidTagName     = "ERR_INVALID_TAG_NAME"
	ErrCodeInvalidOpeningChar = "ERR_INVALID_OPENING_CHAR"
	ErrCodeMisnestedTags      = "ERR_MISNESTED_TAGS"
	ErrCodeUnexpectedEOF      = "ERR_UNEXPECTED_EOF"
	ErrCodeValidation         = "ERR_MODE_VALIDATION"
	ErrCodeArgumentCount      = "ERR_ARGUMENT_COUNT"
	ErrCodeUnknownBlock       = "ERR_UNKNOWN_BLOCK"
	ErrCodeArgOutsideFunc     = "ERR_ARG_OUTSIDE_FUNC"
	ErrCodeUnknownMode        = "ERR_UNKNOWN_MODE"
	ErrCodeOutOfRange         = "ERR_OUT_OF_RANGE"
	ErrCodeReservedMode       = "ERR_RESERVED_MODE"
	ErrCodeCacheBackend       = "ERR_CACHE_BACKEND"
	ErrCodeInvalidConfig      = "ERR_INVALID_CONFIG"
	ErrCodeTemplateNotFound   = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateRead       = "ERR_TEMPLATE_READ"
	ErrCodeTemplateCycle      = "ERR_TEMPLATE_CYCLE"
	ErrCodeBlockCycle         = "ERR_BLOCK_CYCLE"
)

// TemplateError is a structured error raised while tokenizing or rendering.
type TemplateError struct {
	Kind        ErrorKind
	Code        string
	Message     string
	Template    string
	Line        int
	Cause       error
	Suggestions []string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Template != "" {
		location := e.Template
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	} else if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if len(e.Suggestions) > 0 {
		result += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *TemplateError) Is(target error) bool {
	var t *TemplateError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
	}

	return false
}

// WithLocation records where the error happened. An existing location is
// kept so errors raised in nested templates point at their own source.
func (e *TemplateError) WithLocation(template string, line int) *TemplateError {
	if e.Template == "" {
		e.Template = template
		if e.Line == 0 {
			e.Line = line
		}
	}

	return e
}

// WithCause attaches an underlying error.
func (e *TemplateError) WithCause(cause error) *TemplateError {
	e.Cause = cause

	return e
}

// WithSuggestions attaches "did you mean" candidates.
func (e *TemplateError) WithSuggestions(suggestions ...string) *TemplateError {
	e.Suggestions = append(e.Suggestions, suggestions...)

	return e
}

// Error creation functions

// NewSyntaxError creates a tokenizer grammar error.
func NewSyntaxError(code, message string) *TemplateError {
	return &TemplateError{
		Kind:    KindSyntax,
		Code:    code,
		Message: message,
	}
}

// NewUnexpectedEOF creates an error for input that ended inside a construct.
func NewUnexpectedEOF(state string) *TemplateError {
	return &TemplateError{
		Kind:    KindUnexpectedEOF,
		Code:    ErrCodeUnexpectedEOF,
		Message: fmt.Sprintf("unexpected end of input in %s state", state),
	}
}

// NewModeValidationError creates an error for a tag rejected by its mode.
func NewModeValidationError(code, message string) *TemplateError {
	return &TemplateError{
		Kind:    KindModeValidation,
		Code:    code,
		Message: message,
	}
}

// NewModeError creates a runtime mode error.
func NewModeError(code, message string) *TemplateError {
	return &TemplateError{
		Kind:    KindMode,
		Code:    code,
		Message: message,
	}
}

// NewRangeError creates an out of range or unknown identifier error.
func NewRangeError(code, message string) *TemplateError {
	return &TemplateError{
		Kind:    KindRange,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TemplateError {
	return &TemplateError{
		Kind:    KindConfiguration,
		Code:    code,
		Message: message,
	}
}

// NewLoaderError creates a template loading error.
func NewLoaderError(code, message string, cause error) *TemplateError {
	return &TemplateError{
		Kind:    KindLoader,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error checking utilities

// AsTemplateError extracts a TemplateError from an error chain.
func AsTemplateError(err error) (*TemplateError, bool) {
	var te *TemplateError
	if errors.As(err, &te) {
		return te, true
	}

	return nil, false
}

// IsKind reports whether err carries a TemplateError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	te, ok := AsTemplateError(err)

	return ok && te.Kind == kind
}

// HasCode reports whether err carries a TemplateError with the given code.
func HasCode(err error, code string) bool {
	te, ok := AsTemplateError(err)

	return ok && te.Code == code
}

// Locate enriches a TemplateError in err's chain with a template name and
// line. Other errors are returned unchanged.
func Locate(err error, template string, line int) error {
	if err == nil {
		return nil
	}
	if te, ok := AsTemplateError(err); ok {
		te.WithLocation(template, line)
	}

	return err
}

// Common error constructors

// ErrUnknownBlock is raised when use or func reference an undefined block.
func ErrUnknownBlock(name string, known []string) *TemplateError {
	return NewModeError(ErrCodeUnknownBlock, fmt.Sprintf("`%s` is not a known block", name)).
		WithSuggestions(Suggest(name, known)...)
}

// ErrUnknownMode is raised when a tag names no registered mode.
func ErrUnknownMode(name string, known []string) *TemplateError {
	return NewRangeError(ErrCodeUnknownMode, fmt.Sprintf("`%s` is an invalid mode handler identifier", name)).
		WithSuggestions(Suggest(name, known)...)
}

// ErrArgumentCount is raised when a tag carries the wrong number of args.
func ErrArgumentCount(mode string, got, minArgs, maxArgs int) *TemplateError {
	var want string
	if minArgs == maxArgs {
		want = fmt.Sprintf("exactly %d", minArgs)
	} else {
		want = fmt.Sprintf("%d to %d", minArgs, maxArgs)
	}

	return NewModeValidationError(ErrCodeArgumentCount,
		fmt.Sprintf("%s expects %s argument(s), got %d", mode, want, got))
}

// ErrTemplateNotFound is raised by loaders for unknown template names.
func ErrTemplateNotFound(name string) *TemplateError {
	return NewLoaderError(ErrCodeTemplateNotFound, fmt.Sprintf("template `%s` does not exist", name), nil)
}
