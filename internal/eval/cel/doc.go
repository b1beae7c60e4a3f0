// Package cel provides a CEL (Common Expression Language) evaluator for routing
// the outcome of an RPN evaluation.
//
// Rules are boolean CEL expressions over three variables:
//   - result: the value of the RPN expression (double, 0 when evaluation failed)
//   - error_kind: the evaluation failure kind, or "" on success
//   - expression: the RPN expression that was evaluated
//
// Example usage:
//
//	evaluator, err := cel.NewEvaluator(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vars := map[string]interface{}{
//	    "result":     42.0,
//	    "error_kind": "",
//	    "expression": "40 2 +",
//	}
//
//	matched, err := evaluator.Match(ctx, "error_kind == '' && result > 10.0", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Arithmetic: +, -, *, /
package cel
