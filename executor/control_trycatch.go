package executor

import (
	"context"
	"time"

	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

// runTryCatch implements spec.md §4.4 "TryCatch": run the "try" branch,
// retrying up to maxRetries times (delay skipped before the first
// attempt, per the spec.md §9 Open Question decision), then — if every
// attempt failed — record the error and run "catch". "finally" always
// runs last, even on success or when catch itself errors, in which case
// the catch error becomes this node's outcome (spec.md §4.4 "Ordering").
//
// The try branch is visited with underTry=true regardless of this node's
// own underTry, since this is the nearest enclosing tryCatch for
// anything nested inside it; catch and finally inherit the incoming
// underTry unchanged, since a failure there is not retried by this node.
func (e *Executor) runTryCatch(ctx context.Context, n *graph.Node, underTry bool) error {
	maxRetries := int(dataNumber(n.Data, "maxRetries"))
	retryDelay := time.Duration(dataNumber(n.Data, "retryDelay")) * time.Millisecond
	errorVar := dataString(n.Data, "errorVariable")

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if e.Runtime.IsFailed() {
			return nil
		}
		if attempt > 0 && retryDelay > 0 {
			time.Sleep(retryDelay)
		}
		lastErr = e.traverseBranch(ctx, n.ID, "try", true)
		if lastErr == nil {
			break
		}
	}

	var outcome error
	if lastErr != nil {
		if errorVar != "" {
			e.Variables.Set(errorVar, value.String(lastErr.Error()), variable.ScopeLocal)
		}
		outcome = e.traverseBranch(ctx, n.ID, "catch", underTry)
	}

	if finallyErr := e.traverseBranch(ctx, n.ID, "finally", underTry); outcome == nil {
		outcome = finallyErr
	}

	return outcome
}
