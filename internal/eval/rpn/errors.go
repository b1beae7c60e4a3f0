package rpn

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the class of an evaluation failure
type ErrorKind string

const (
	// KindStackUnderflow is reported when an operator finds fewer than two operands
	KindStackUnderflow ErrorKind = "stack_underflow"

	// KindDivisionByZero is reported when the right operand of / is exactly zero
	KindDivisionByZero ErrorKind = "division_by_zero"

	// KindUnknownToken is reported for tokens that are neither numbers nor operators
	KindUnknownToken ErrorKind = "unknown_token"

	// KindMalformedExpression is reported when the final stack does not hold exactly one value
	KindMalformedExpression ErrorKind = "malformed_expression"
)

// Sentinel errors, one per kind. Every typed error wraps its sentinel.
var (
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrUnknownToken        = errors.New("unknown token")
	ErrMalformedExpression = errors.New("malformed expression")
)

// Error is implemented by every error returned from Evaluate
type Error interface {
	error
	Kind() ErrorKind
}

// Operand names the side of a binary operation
type Operand string

const (
	OperandLeft  Operand = "left"
	OperandRight Operand = "right"
)

// StackUnderflowError is returned when an operator is applied with fewer than
// two values on the stack.
type StackUnderflowError struct {
	Token    string
	Position int
	Missing  Operand
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("%s: no %s operand for %q at token %d", ErrStackUnderflow, e.Missing, e.Token, e.Position)
}

func (e *StackUnderflowError) Unwrap() error { return ErrStackUnderflow }

// Kind returns KindStackUnderflow
func (e *StackUnderflowError) Kind() ErrorKind { return KindStackUnderflow }

// DivisionByZeroError is returned when the divisor of / is exactly zero.
type DivisionByZeroError struct {
	Left     float64
	Position int
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("%s: %g / 0 at token %d", ErrDivisionByZero, e.Left, e.Position)
}

func (e *DivisionByZeroError) Unwrap() error { return ErrDivisionByZero }

// Kind returns KindDivisionByZero
func (e *DivisionByZeroError) Kind() ErrorKind { return KindDivisionByZero }

// UnknownTokenError is returned for a token that is neither a float literal
// nor a supported operator. Token may be empty when the input contains
// leading, trailing or repeated spaces.
type UnknownTokenError struct {
	Token    string
	Position int
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("%s %q at token %d", ErrUnknownToken, e.Token, e.Position)
}

func (e *UnknownTokenError) Unwrap() error { return ErrUnknownToken }

// Kind returns KindUnknownToken
func (e *UnknownTokenError) Kind() ErrorKind { return KindUnknownToken }

// MalformedExpressionError is returned when the stack does not hold exactly
// Expected values once every token has been consumed.
type MalformedExpressionError struct {
	Expected int
	Actual   int
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("%s: expected %d value left on the stack, got %d", ErrMalformedExpression, e.Expected, e.Actual)
}

func (e *MalformedExpressionError) Unwrap() error { return ErrMalformedExpression }

// Kind returns KindMalformedExpression
func (e *MalformedExpressionError) Kind() ErrorKind { return KindMalformedExpression }

// KindOf returns the kind of an evaluation error, or "" if err did not come
// from this package.
func KindOf(err error) ErrorKind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return ""
}
