package calculator

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-rpn/internal/eval/cel"
	"go.uber.org/zap"
)

// route sets the target node of result using the rules of config.
// A failed evaluation has no result: rules reading it fail to evaluate and
// are skipped, so only conditions on error_kind or expression can match.
func (c *Calculator) route(ctx context.Context, config *NodeConfig, result *Result) {
	vars := map[string]interface{}{
		cel.VarErrorKind:  string(result.ErrorKind),
		cel.VarExpression: result.Expression,
	}
	if !result.Failed() {
		vars[cel.VarResult] = result.Value
	}

	for i, rule := range config.Rules {
		c.logger.Debug("evaluating rule",
			zap.Int("rule_index", i),
			zap.String("condition", rule.Condition),
		)

		matched, err := c.celEvaluator.Match(ctx, rule.Condition, vars)
		if err != nil {
			level := c.logger.Warn
			if result.Failed() {
				level = c.logger.Debug
			}
			level("rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			// Continue to next rule on error
			continue
		}

		if matched {
			c.logger.Debug("rule matched",
				zap.Int("rule_index", i),
				zap.String("target", rule.Target),
			)
			result.TargetNode = rule.Target
			result.Reasoning = fmt.Sprintf("matched rule %d: %s", i, rule.Condition)
			result.PathTaken = PathRule
			return
		}
	}

	if result.Failed() {
		result.TargetNode = config.ErrorTarget
		if result.TargetNode == "" {
			result.TargetNode = config.Fallback
		}
		result.Reasoning = fmt.Sprintf("evaluation failed: %s", result.ErrorKind)
		result.PathTaken = PathError
		return
	}

	result.TargetNode = config.Fallback
	result.Reasoning = "no rules matched"
	result.PathTaken = PathFallback
}
