package ruleflow

import (
	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

// ErrorCode identifies why a call failed. See the errors package for the
// full list.
type ErrorCode = rferrors.ErrorCode

// AllClear is the code of a successful call.
const AllClear = rferrors.AllClear

// CodeOf returns the code carried by err: AllClear for nil and
// INTERNAL_INVARIANT for errors that did not come from ruleflow.
func CodeOf(err error) ErrorCode {
	return rferrors.CodeOf(err)
}
