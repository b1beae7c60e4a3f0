// Package calculator evaluates the RPN expression configured on a graph node
// and routes the outcome to the next node.
//
// Routing rules are CEL conditions evaluated in order against the result of
// the expression. The first matching rule decides the target; when none
// matches the fallback is used. A failed evaluation is routed to the error
// target unless a rule matches on error_kind first.
//
// Example:
//
//	config := &NodeConfig{
//	    Expression: "14 4 6 8 + * /",
//	    Rules: []Rule{
//	        {Condition: "result < 1.0", Target: "fraction_handler"},
//	        {Condition: "error_kind == 'division_by_zero'", Target: "retry_input"},
//	    },
//	    Fallback:        "default_handler",
//	    ErrorTarget:     "error_handler",
//	    SummaryTemplate: "{{expression}} = {{number result}}",
//	}
//	result, err := calc.Calculate(ctx, config)
package calculator
