package executor

import (
	"context"
	"fmt"

	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

// runForEach implements spec.md §4.4 "ForEach": iterate a List-valued
// variable, binding itemVariable/indexVariable before each pass through
// "body". A missing or non-list source variable is non-fatal: it logs a
// Warn and goes straight to "done" (spec.md §9 Open Questions).
func (e *Executor) runForEach(ctx context.Context, n *graph.Node, underTry bool) error {
	listVar := dataString(n.Data, "listVariable")
	itemVar := dataString(n.Data, "itemVariable")
	indexVar := dataString(n.Data, "indexVariable")

	v, ok := e.Variables.Get(listVar)
	items, isList := v.AsList()
	if !ok || !isList {
		e.Runtime.AddLog(runtime.LevelWarn, n.ID, fmt.Sprintf("forEach: variable %q is missing or not a list", listVar), "")
		return e.traverseBranch(ctx, n.ID, "done", underTry)
	}

	for i, item := range items {
		if e.Runtime.IsFailed() {
			return nil
		}
		if indexVar != "" {
			e.Variables.Set(indexVar, value.Number(float64(i)), variable.ScopeLocal)
		}
		if itemVar != "" {
			e.Variables.Set(itemVar, item, variable.ScopeLocal)
		}
		if err := e.traverseBranch(ctx, n.ID, "body", underTry); err != nil {
			return err
		}
	}

	return e.traverseBranch(ctx, n.ID, "done", underTry)
}
