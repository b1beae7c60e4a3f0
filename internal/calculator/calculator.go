package calculator

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/aescanero/dago-node-rpn/internal/eval/cel"
	"github.com/aescanero/dago-node-rpn/internal/eval/rpn"
	"github.com/aescanero/dago-node-rpn/internal/eval/template"
	"github.com/aescanero/dago-node-rpn/internal/metrics"
	"go.uber.org/zap"
)

// PathTaken values reported on a Result
const (
	PathRule     = "rule"
	PathFallback = "fallback"
	PathError    = "error"
)

// NodeConfig represents the configuration of an RPN node
type NodeConfig struct {
	Expression      string `json:"expression"`
	Rules           []Rule `json:"rules,omitempty"`
	Fallback        string `json:"fallback"`
	ErrorTarget     string `json:"error_target,omitempty"`
	SummaryTemplate string `json:"summary_template,omitempty"`
}

// Rule represents a CEL-based routing rule
type Rule struct {
	Condition string `json:"condition"`
	Target    string `json:"target"`
}

// Result is the outcome of evaluating a node's expression and routing it.
// Value is only meaningful when ErrorKind is empty.
type Result struct {
	Expression string
	Value      float64
	ErrorKind  rpn.ErrorKind
	Error      string
	TargetNode string
	Reasoning  string
	PathTaken  string
	Summary    string
	Duration   time.Duration
}

// Failed reports whether the expression could not be evaluated
func (r *Result) Failed() bool {
	return r.ErrorKind != ""
}

// Options configures a Calculator
type Options struct {
	// CELEnabled allows routing rules; without it only fallback routing is available
	CELEnabled bool

	// MaxExpressionLength limits the expression size in bytes; zero means unlimited
	MaxExpressionLength int

	// CacheSize bounds the compiled rule and template caches; zero uses the defaults
	CacheSize int

	Metrics *metrics.Collector
}

// Calculator evaluates node expressions and routes their outcome
type Calculator struct {
	celEvaluator   *cel.Evaluator
	templateEngine *template.Engine
	metrics        *metrics.Collector
	maxLength      int
	logger         *zap.Logger
}

// NewCalculator creates a new calculator
func NewCalculator(opts Options, logger *zap.Logger) (*Calculator, error) {
	c := &Calculator{
		templateEngine: template.NewEngine(opts.CacheSize),
		metrics:        opts.Metrics,
		maxLength:      opts.MaxExpressionLength,
		logger:         logger,
	}

	if opts.CELEnabled {
		evaluator, err := cel.NewEvaluator(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
		}
		c.celEvaluator = evaluator
	}

	return c, nil
}

// Calculate evaluates the configured expression and decides the target node.
// An error is returned only for invalid configuration; evaluation failures
// are reported on the Result and routed like any other outcome.
func (c *Calculator) Calculate(ctx context.Context, config *NodeConfig) (*Result, error) {
	if err := c.validateConfig(config); err != nil {
		c.metrics.RecordEvaluation(metrics.OutcomeInvalid, 0, 0)
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	start := time.Now()
	value, err := rpn.Evaluate(config.Expression)
	elapsed := time.Since(start)

	result := &Result{
		Expression: config.Expression,
		Duration:   elapsed,
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		result.ErrorKind = rpn.KindOf(err)
		result.Error = err.Error()
		outcome = string(result.ErrorKind)

		c.logger.Info("expression evaluation failed",
			zap.String("expression", abbreviate(config.Expression)),
			zap.String("error_kind", string(result.ErrorKind)),
			zap.Error(err),
		)
	} else {
		result.Value = value

		c.logger.Debug("expression evaluated",
			zap.String("expression", abbreviate(config.Expression)),
			zap.Float64("result", value),
			zap.Duration("duration", elapsed),
		)
	}
	c.metrics.RecordEvaluation(outcome, rpn.CountTokens(config.Expression), elapsed)

	c.route(ctx, config, result)

	if config.SummaryTemplate != "" {
		summary, err := c.templateEngine.Render(config.SummaryTemplate, summaryData(result))
		if err != nil {
			c.logger.Warn("failed to render summary", zap.Error(err))
		} else {
			result.Summary = summary
		}
	}

	c.logger.Info("routing decision",
		zap.String("target", result.TargetNode),
		zap.String("path", result.PathTaken),
		zap.String("reasoning", result.Reasoning),
	)

	return result, nil
}

// validateConfig validates the node configuration
func (c *Calculator) validateConfig(config *NodeConfig) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Expression == "" {
		return fmt.Errorf("expression is required")
	}

	if c.maxLength > 0 && len(config.Expression) > c.maxLength {
		return fmt.Errorf("expression length %d exceeds limit of %d", len(config.Expression), c.maxLength)
	}

	if config.Fallback == "" {
		return fmt.Errorf("fallback route is required")
	}

	if len(config.Rules) > 0 && c.celEvaluator == nil {
		return fmt.Errorf("routing rules require CEL to be enabled")
	}

	for i, rule := range config.Rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if rule.Target == "" {
			return fmt.Errorf("rule %d: target is required", i)
		}
		if err := c.celEvaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	if config.SummaryTemplate != "" {
		if err := c.templateEngine.ValidateTemplate(config.SummaryTemplate); err != nil {
			return fmt.Errorf("summary_template: %w", err)
		}
	}

	return nil
}

func summaryData(result *Result) map[string]interface{} {
	return map[string]interface{}{
		"expression": result.Expression,
		"result":     result.Value,
		"error":      result.Error,
		"error_kind": string(result.ErrorKind),
		"target":     result.TargetNode,
		"path":       result.PathTaken,
	}
}

// abbreviate keeps log lines bounded for very long expressions
func abbreviate(expression string) string {
	const limit = 256
	if len(expression) <= limit {
		return expression
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(expression[cut]) {
		cut--
	}
	return expression[:cut] + "..."
}
