package errors

import "fmt"

// ErrorCode identifies a failure condition. Codes are stable strings and are
// safe to persist or compare across releases.
type ErrorCode string

// AllClear is the code reported for a successful call.
const AllClear ErrorCode = "ALL_CLEAR"

// Validation errors: detected once per distinct expression text.
const (
	ErrEmptyExpression           ErrorCode = "EMPTY_EXPRESSION"
	ErrUnbalancedParenOrBracket  ErrorCode = "UNBALANCED_PAREN_OR_BRACKET"
	ErrUnterminatedStringLiteral ErrorCode = "UNTERMINATED_STRING_LITERAL"
	ErrInconsistentParenUsage    ErrorCode = "INCONSISTENT_PAREN_USAGE"
	ErrUnknownAttribute          ErrorCode = "UNKNOWN_ATTRIBUTE"
	ErrUnknownOperator           ErrorCode = "UNKNOWN_OPERATOR"
	ErrUnexpectedToken           ErrorCode = "UNEXPECTED_TOKEN"
	ErrMissingIndexOrKey         ErrorCode = "MISSING_INDEX_OR_KEY"
	ErrInvalidOperatorForType    ErrorCode = "INVALID_OPERATOR_FOR_TYPE"
	ErrMixedOpsInGroup           ErrorCode = "MIXED_LOGICAL_OPERATORS_IN_GROUP"
	ErrMixedOpsAcrossGroups      ErrorCode = "MIXED_LOGICAL_OPERATORS_ACROSS_GROUPS"
	ErrInvalidLiteralForType     ErrorCode = "INVALID_LITERAL_FOR_TYPE"
	ErrInvalidIndexOrKey         ErrorCode = "INVALID_INDEX_OR_KEY"
	ErrNestingTooDeep            ErrorCode = "NESTING_TOO_DEEP"
)

// Cache-consistency errors.
const (
	ErrSchemaMismatchInCache ErrorCode = "SCHEMA_MISMATCH_IN_CACHE"
)

// Runtime errors: abort one evaluation, never the cached plan.
const (
	ErrInvalidIndex         ErrorCode = "INVALID_INDEX"
	ErrInvalidKey           ErrorCode = "INVALID_KEY"
	ErrDivideByZero         ErrorCode = "DIVIDE_BY_ZERO"
	ErrMalformedListLiteral ErrorCode = "MALFORMED_LIST_LITERAL"
	ErrTypeMismatch         ErrorCode = "TYPE_MISMATCH"
)

// Internal invariant violations.
const (
	ErrInternalInvariant ErrorCode = "INTERNAL_INVARIANT"
)

// Error is the structured error returned by every ruleflow package.
type Error struct {
	Code ErrorCode
	// Message is a human-readable description.
	Message string
	// Position is the byte offset into the expression text, or -1 when the
	// failure is not tied to a location.
	Position int
	// Token is the offending text, if any.
	Token string
	// Err is an optional underlying cause.
	Err error
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Newf creates an error with a formatted message and no position.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, errors.New(errors.ErrDivideByZero, "", -1)) or, more
// usually, compare CodeOf(err).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithToken adds the offending token.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// At returns a copy of e relocated to position. Used when an error raised
// while scanning a sub-span is reported against the enclosing text.
func (e *Error) At(position int) *Error {
	c := *e
	c.Position = position
	return &c
}
