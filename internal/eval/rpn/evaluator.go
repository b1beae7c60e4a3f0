package rpn

import (
	"errors"
	"iter"
	"strconv"
	"strings"
)

// Separator is the only byte recognised between tokens
const Separator = " "

// Operator is a binary arithmetic operator
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

// String returns the operator symbol
func (op Operator) String() string {
	return string(rune(op))
}

// ParseOperator reports whether token is one of + - * /
func ParseOperator(token string) (Operator, bool) {
	if len(token) != 1 {
		return 0, false
	}
	switch op := Operator(token[0]); op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return op, true
	}
	return 0, false
}

// Tokens lazily splits input on single spaces. Empty tokens are yielded for
// leading, trailing and repeated spaces, and for empty input.
func Tokens(input string) iter.Seq[string] {
	return strings.SplitSeq(input, Separator)
}

// Evaluate computes the value of an RPN expression.
//
// Numbers must be complete float64 literals; "4a" is an unknown token, not 4.
// Division by an exact zero fails instead of producing an infinity.
func Evaluate(input string) (float64, error) {
	var stack []float64

	pos := 0
	for token := range Tokens(input) {
		if value, ok := parseNumber(token); ok {
			stack = append(stack, value)
			pos++
			continue
		}

		op, ok := ParseOperator(token)
		if !ok {
			return 0, &UnknownTokenError{Token: token, Position: pos}
		}

		n := len(stack)
		if n < 1 {
			return 0, &StackUnderflowError{Token: token, Position: pos, Missing: OperandRight}
		}
		if n < 2 {
			return 0, &StackUnderflowError{Token: token, Position: pos, Missing: OperandLeft}
		}
		left, right := stack[n-2], stack[n-1]
		stack = stack[:n-2]

		result, err := apply(op, left, right, pos)
		if err != nil {
			return 0, err
		}
		stack = append(stack, result)
		pos++
	}

	if len(stack) != 1 {
		return 0, &MalformedExpressionError{Expected: 1, Actual: len(stack)}
	}
	return stack[0], nil
}

// parseNumber parses a decimal float literal. Literals too large for float64
// become infinities; hexadecimal literals are not numbers.
func parseNumber(token string) (float64, bool) {
	digits := strings.TrimLeft(token, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return value, true
}

func apply(op Operator, left, right float64, pos int) (float64, error) {
	switch op {
	case OpAdd:
		return left + right, nil
	case OpSub:
		return left - right, nil
	case OpMul:
		return left * right, nil
	case OpDiv:
		if right == 0 {
			return 0, &DivisionByZeroError{Left: left, Position: pos}
		}
		return left / right, nil
	}
	return 0, &UnknownTokenError{Token: op.String(), Position: pos}
}

// CountTokens returns the number of tokens in input. Evaluate stops at the
// first failing token, so a failed evaluation may visit fewer.
func CountTokens(input string) int {
	return strings.Count(input, Separator) + 1
}
