// Package errors provides the error codes and error tiers used by ruleflow.
//
// Errors are layered the same way the evaluation pipeline is:
//   - Validation: syntax and type-compatibility failures, found once per expression text
//   - Cache consistency: a cached plan was requested under a different schema
//   - Runtime: data-dependent failures during one evaluation (divide by zero, bad index)
//   - Internal: broken internal invariants that should never fire
package errors

import (
	"errors"
)

// Category represents the tier an error belongs to.
type Category int

const (
	// CategoryValidation indicates the expression text itself is invalid.
	// Nothing is cached; fixing the expression is the only remedy.
	CategoryValidation Category = iota

	// CategoryCacheConsistency indicates a cached plan was built against a
	// different schema than the caller supplied.
	CategoryCacheConsistency

	// CategoryRuntime indicates the record data made evaluation fail.
	// The cached plan stays valid for other records.
	CategoryRuntime

	// CategoryInternal indicates a broken invariant inside ruleflow.
	CategoryInternal
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryCacheConsistency:
		return "cache_consistency"
	case CategoryRuntime:
		return "runtime"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

var codeCategories = map[ErrorCode]Category{
	ErrEmptyExpression:           CategoryValidation,
	ErrUnbalancedParenOrBracket:  CategoryValidation,
	ErrUnterminatedStringLiteral: CategoryValidation,
	ErrInconsistentParenUsage:    CategoryValidation,
	ErrUnknownAttribute:          CategoryValidation,
	ErrUnknownOperator:           CategoryValidation,
	ErrUnexpectedToken:           CategoryValidation,
	ErrMissingIndexOrKey:         CategoryValidation,
	ErrInvalidOperatorForType:    CategoryValidation,
	ErrMixedOpsInGroup:           CategoryValidation,
	ErrMixedOpsAcrossGroups:      CategoryValidation,
	ErrInvalidIndexOrKey:         CategoryValidation,
	ErrNestingTooDeep:            CategoryValidation,

	ErrSchemaMismatchInCache: CategoryCacheConsistency,

	// A literal that fails conversion is reported lazily, when its clause runs.
	ErrInvalidLiteralForType: CategoryRuntime,
	ErrInvalidIndex:          CategoryRuntime,
	ErrInvalidKey:            CategoryRuntime,
	ErrDivideByZero:          CategoryRuntime,
	ErrMalformedListLiteral:  CategoryRuntime,
	ErrTypeMismatch:          CategoryRuntime,

	ErrInternalInvariant: CategoryInternal,
}

// CodeOf extracts the error code from err. A nil error yields AllClear and a
// foreign error yields ErrInternalInvariant.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return AllClear
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternalInvariant
}

// Categorize determines which tier err belongs to.
func Categorize(err error) Category {
	if err == nil {
		return CategoryInternal // shouldn't happen, fail safe
	}
	if cat, ok := codeCategories[CodeOf(err)]; ok {
		return cat
	}
	return CategoryInternal
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return err != nil && Categorize(err) == CategoryValidation
}

// IsRuntime reports whether err is a per-record evaluation failure.
func IsRuntime(err error) bool {
	return err != nil && Categorize(err) == CategoryRuntime
}

// IsCacheConsistency reports whether err is a cached-plan schema mismatch.
func IsCacheConsistency(err error) bool {
	return err != nil && Categorize(err) == CategoryCacheConsistency
}
