package executor

import (
	"context"

	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

// runLoop implements spec.md §4.4 "Loop": a fixed iteration count, or a
// while-condition re-evaluated each pass and capped at loopSafetyLimit
// (testable property 5). indexVariable, when set, is assigned the
// zero-based iteration index before each pass through "body"; "done" runs
// once the loop ends.
func (e *Executor) runLoop(ctx context.Context, n *graph.Node, underTry bool) error {
	indexVar := dataString(n.Data, "indexVariable")

	switch dataString(n.Data, "loopType") {
	case "while":
		condTemplate := dataString(n.Data, "condition")
		for i := 0; i < loopSafetyLimit; i++ {
			if e.Runtime.IsFailed() {
				return nil
			}
			if indexVar != "" {
				e.Variables.Set(indexVar, value.Number(float64(i)), variable.ScopeLocal)
			}
			cond := e.Variables.Interpolate(condTemplate)
			if !value.Truthy(cond) {
				break
			}
			if err := e.traverseBranch(ctx, n.ID, "body", underTry); err != nil {
				return err
			}
		}
	default: // "count"
		count := int(dataNumber(n.Data, "count"))
		for i := 0; i < count; i++ {
			if e.Runtime.IsFailed() {
				return nil
			}
			if indexVar != "" {
				e.Variables.Set(indexVar, value.Number(float64(i)), variable.ScopeLocal)
			}
			if err := e.traverseBranch(ctx, n.ID, "body", underTry); err != nil {
				return err
			}
		}
	}

	return e.traverseBranch(ctx, n.ID, "done", underTry)
}
