package executor

import (
	"context"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/runtime"
)

// evaluateCondition implements the nine fixed comparison operators of
// spec.md §4.4 "Condition". It is total: every operator/operand pair
// yields exactly true or false, never an error (testable property 4).
// Numeric operators parse both operands as float64, treating a parse
// failure as 0.0.
func evaluateCondition(operator, left, right string) bool {
	switch operator {
	case "==":
		return left == right
	case "!=":
		return left != right
	case ">", "<", ">=", "<=":
		l := parseFloatOrZero(left)
		r := parseFloatOrZero(right)
		switch operator {
		case ">":
			return l > r
		case "<":
			return l < r
		case ">=":
			return l >= r
		default:
			return l <= r
		}
	case "contains":
		return strings.Contains(left, right)
	case "isEmpty":
		return left == ""
	case "isNotEmpty":
		return left != ""
	default:
		return false
	}
}

func parseFloatOrZero(text string) float64 {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return n
}

// runCondition implements spec.md §4.4 "Condition": evaluate the fixed
// operator over interpolated operands (or, additively, the SPEC_FULL.md
// §10 expr-lang expression field) and follow exactly the "true" or
// "false" handle edges.
func (e *Executor) runCondition(ctx context.Context, n *graph.Node, underTry bool) error {
	var result bool

	if exprSrc := dataString(n.Data, "expression"); exprSrc != "" {
		var err error
		result, err = e.evaluateExpression(exprSrc)
		if err != nil {
			e.Runtime.AddLog(runtime.LevelWarn, n.ID, "condition expression failed, treating as false: "+err.Error(), exprSrc)
			result = false
		}
	} else {
		left := e.Variables.Interpolate(dataString(n.Data, "left"))
		right := e.Variables.Interpolate(dataString(n.Data, "right"))
		operator := dataString(n.Data, "operator")
		result = evaluateCondition(operator, left, right)
	}

	handle := "false"
	if result {
		handle = "true"
	}
	return e.traverseBranch(ctx, n.ID, handle, underTry)
}

// evaluateExpression compiles and runs an expr-lang expression against a
// snapshot of the current variable store (SPEC_FULL.md §10, additive to
// the nine fixed operators — never required for core conformance).
func (e *Executor) evaluateExpression(source string) (bool, error) {
	env := make(map[string]any)
	for _, v := range e.Variables.All() {
		env[v.Name] = v.Value.ToJSON()
	}

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}
