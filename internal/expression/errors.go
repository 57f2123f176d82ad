package expression

import (
	"errors"
	"fmt"
)

// ErrorKind classifies evaluation failures
type ErrorKind string

const (
	ErrUndefinedVariable    ErrorKind = "undefined_variable"
	ErrMissingInputValue    ErrorKind = "missing_input_value"
	ErrTypeCoercion         ErrorKind = "type_coercion"
	ErrInsufficientOperands ErrorKind = "insufficient_operands"
	ErrInvalidExpression    ErrorKind = "invalid_expression"
	ErrTypeMismatch         ErrorKind = "type_mismatch"
	ErrDivisionByZero       ErrorKind = "division_by_zero"
	ErrConditionNotBoolean  ErrorKind = "condition_not_boolean"
	ErrUnknownOperator      ErrorKind = "unknown_operator"
	ErrInvalidFormula       ErrorKind = "invalid_formula"
)

// EvalError is returned by every failing evaluation step
type EvalError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EvalError) Error() string {
	return e.Message
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first EvalError in err's chain, or an empty
// kind when there is none.
func KindOf(err error) ErrorKind {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	return ""
}
