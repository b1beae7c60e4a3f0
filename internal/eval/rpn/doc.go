// Package rpn evaluates arithmetic expressions written in Reverse Polish Notation.
//
// An expression is a stream of tokens separated by single ASCII spaces. Every
// token is either a float64 literal, which is pushed onto the evaluation stack,
// or one of the binary operators + - * /, which pops the right and left operands
// and pushes left OP right. A well-formed expression leaves exactly one value on
// the stack.
//
// Example usage:
//
//	result, err := rpn.Evaluate("5 1 2 + 4 * + 3 -")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result) // 14
//
// Failures are returned as typed errors that can be matched by kind:
//
//	_, err := rpn.Evaluate("2 0 /")
//	if errors.Is(err, rpn.ErrDivisionByZero) {
//	    // handle
//	}
//
//	var unknown *rpn.UnknownTokenError
//	if errors.As(err, &unknown) {
//	    fmt.Println(unknown.Token, unknown.Position)
//	}
//
// Evaluate holds no state between calls and is safe for concurrent use.
package rpn
