package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/node"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

func newExecutor(g *graph.Graph) *Executor {
	return New(g, node.NewDispatcher(), node.Drivers{})
}

// TestLinearWorkflowCompletes covers spec.md scenario S1: start -> setVariable
// -> log -> end runs to Completed, recording the variable and a log entry.
func TestLinearWorkflowCompletes(t *testing.T) {
	g := graph.New("g1", "linear", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "set", Type: "setVariable", Data: map[string]any{"name": "greeting", "value": "hello", "type": "string"}},
		{ID: "log", Type: "log", Data: map[string]any{"message": "${greeting}", "level": "info"}},
		{ID: "end", Type: "end"},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "set"},
		{ID: "e2", Source: "set", Target: "log"},
		{ID: "e3", Source: "log", Target: "end"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusCompleted, snap.Status)

	v, ok := e.Variables.Get("greeting")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "hello", s)

	var found bool
	for _, l := range snap.Logs {
		if l.Message == "hello" {
			found = true
		}
	}
	assert.True(t, found, "expected the interpolated log message to be recorded")
}

// TestConditionRoutesToTrueBranch covers spec.md scenario S2: a numeric ">"
// condition over an interpolated variable follows the "true" handle only.
func TestConditionRoutesToTrueBranch(t *testing.T) {
	g := graph.New("g1", "cond", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "set", Type: "setVariable", Data: map[string]any{"name": "a", "value": "7", "type": "number"}},
		{ID: "c", Type: "condition", Data: map[string]any{"left": "${a}", "right": "5", "operator": ">"}},
		{ID: "onTrue", Type: "setVariable", Data: map[string]any{"name": "branch", "value": "true-taken", "type": "string"}},
		{ID: "onFalse", Type: "setVariable", Data: map[string]any{"name": "branch", "value": "false-taken", "type": "string"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "set"},
		{ID: "e2", Source: "set", Target: "c"},
		{ID: "e3", Source: "c", Target: "onTrue", SourceHandle: "true"},
		{ID: "e4", Source: "c", Target: "onFalse", SourceHandle: "false"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	v, ok := e.Variables.Get("branch")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "true-taken", s)
}

// TestWhileLoopRespectsSafetyLimit covers testable property 5: a while
// condition that is always truthy terminates after exactly 10000 iterations.
func TestWhileLoopRespectsSafetyLimit(t *testing.T) {
	g := graph.New("g1", "whileloop", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "loop", Type: "loop", Data: map[string]any{"loopType": "while", "condition": "true", "indexVariable": "i"}},
		{ID: "body", Type: "log", Data: map[string]any{"message": "tick"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "loop"},
		{ID: "e2", Source: "loop", Target: "body", SourceHandle: "body"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	v, ok := e.Variables.Get("i")
	require.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, float64(loopSafetyLimit-1), n, "index should reflect the final (10000th) iteration")
}

// TestCountLoopRunsExactCount exercises a bounded loop and indexVariable
// assignment per pass.
func TestCountLoopRunsExactCount(t *testing.T) {
	g := graph.New("g1", "countloop", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "loop", Type: "loop", Data: map[string]any{"loopType": "count", "count": float64(3), "indexVariable": "i"}},
		{ID: "body", Type: "setVariable", Data: map[string]any{"name": "last", "value": "${i}", "type": "number"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "loop"},
		{ID: "e2", Source: "loop", Target: "body", SourceHandle: "body"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	v, ok := e.Variables.Get("last")
	require.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, float64(2), n)
}

// TestForEachIteratesListVariable covers spec.md scenario S6.
func TestForEachIteratesListVariable(t *testing.T) {
	g := graph.New("g1", "foreach", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "fe", Type: "forEach", Data: map[string]any{"listVariable": "items", "itemVariable": "item", "indexVariable": "idx"}},
		{ID: "body", Type: "setVariable", Data: map[string]any{"name": "last", "value": "${item}", "type": "string"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "fe"},
		{ID: "e2", Source: "fe", Target: "body", SourceHandle: "body"},
	})

	e := newExecutor(g)
	e.Variables.Set("items", value.List([]value.Value{value.String("a"), value.String("b"), value.String("c")}), variable.ScopeGlobal)

	require.NoError(t, e.Run(context.Background()))

	v, ok := e.Variables.Get("last")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "c", s)
}

// TestForEachMissingVariableIsNonFatal covers the Open Question decision: a
// missing or non-list source just logs a Warn and proceeds to "done".
func TestForEachMissingVariableIsNonFatal(t *testing.T) {
	g := graph.New("g1", "foreach-missing", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "fe", Type: "forEach", Data: map[string]any{"listVariable": "nope"}},
		{ID: "done", Type: "setVariable", Data: map[string]any{"name": "reached", "value": "true", "type": "boolean"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "fe"},
		{ID: "e2", Source: "fe", Target: "done", SourceHandle: "done"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusCompleted, snap.Status)

	var warned bool
	for _, l := range snap.Logs {
		if l.Level == runtime.LevelWarn {
			warned = true
		}
	}
	assert.True(t, warned)

	v, ok := e.Variables.Get("reached")
	require.True(t, ok)
	b, _ := v.AsBool()
	assert.True(t, b)
}

// errHandler always fails, to drive tryCatch retry/catch/finally coverage
// and the Fatal-outside-tryCatch absorption path.
type errHandler struct {
	calls *int
}

func (h errHandler) Execute(hc *node.Context) error {
	*h.calls++
	return fmt.Errorf("boom")
}

// TestTryCatchRetriesThenCatchesThenRunsFinally covers spec.md scenario S4
// and testable property 6 (retry count == maxRetries+1 attempts).
func TestTryCatchRetriesThenCatchesThenRunsFinally(t *testing.T) {
	g := graph.New("g1", "trycatch", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "tc", Type: "tryCatch", Data: map[string]any{"maxRetries": float64(2), "retryDelay": float64(0), "errorVariable": "err"}},
		{ID: "tryNode", Type: "alwaysFails"},
		{ID: "catchNode", Type: "setVariable", Data: map[string]any{"name": "caught", "value": "${err}", "type": "string"}},
		{ID: "finallyNode", Type: "setVariable", Data: map[string]any{"name": "finallyRan", "value": "true", "type": "boolean"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "tc"},
		{ID: "e2", Source: "tc", Target: "tryNode", SourceHandle: "try"},
		{ID: "e3", Source: "tc", Target: "catchNode", SourceHandle: "catch"},
		{ID: "e4", Source: "tc", Target: "finallyNode", SourceHandle: "finally"},
	})

	calls := 0
	d := node.NewDispatcher()
	d.Register("alwaysFails", errHandler{calls: &calls})

	e := New(g, d, node.Drivers{})
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, 3, calls, "expected maxRetries+1 total attempts")

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusCompleted, snap.Status)

	v, ok := e.Variables.Get("caught")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "boom", s)

	fv, ok := e.Variables.Get("finallyRan")
	require.True(t, ok)
	b, _ := fv.AsBool()
	assert.True(t, b)
}

// TestTryCatchSucceedsWithoutRetry covers the common case where the try
// branch succeeds on the first attempt: no catch, finally still runs.
func TestTryCatchSucceedsWithoutRetry(t *testing.T) {
	g := graph.New("g1", "trycatch-ok", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "tc", Type: "tryCatch", Data: map[string]any{"maxRetries": float64(2)}},
		{ID: "tryNode", Type: "setVariable", Data: map[string]any{"name": "ok", "value": "true", "type": "boolean"}},
		{ID: "catchNode", Type: "setVariable", Data: map[string]any{"name": "caught", "value": "true", "type": "boolean"}},
		{ID: "finallyNode", Type: "setVariable", Data: map[string]any{"name": "finallyRan", "value": "true", "type": "boolean"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "tc"},
		{ID: "e2", Source: "tc", Target: "tryNode", SourceHandle: "try"},
		{ID: "e3", Source: "tc", Target: "catchNode", SourceHandle: "catch"},
		{ID: "e4", Source: "tc", Target: "finallyNode", SourceHandle: "finally"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	_, caught := e.Variables.Get("caught")
	assert.False(t, caught, "catch branch must not run when try succeeds")

	_, finallyRan := e.Variables.Get("finallyRan")
	assert.True(t, finallyRan)
}

// TestUncaughtHandlerErrorFailsRuntime covers spec.md §4.2 Fatal semantics
// and testable property 9 (failure absorption): a handler error outside any
// tryCatch fails the runtime and the node after it never runs.
func TestUncaughtHandlerErrorFailsRuntime(t *testing.T) {
	g := graph.New("g1", "fatal", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "boom", Type: "alwaysFails"},
		{ID: "after", Type: "setVariable", Data: map[string]any{"name": "reached", "value": "true", "type": "boolean"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "boom"},
		{ID: "e2", Source: "boom", Target: "after"},
	})

	calls := 0
	d := node.NewDispatcher()
	d.Register("alwaysFails", errHandler{calls: &calls})

	e := New(g, d, node.Drivers{})
	err := e.Run(context.Background())
	require.Error(t, err)

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusFailed, snap.Status)
	assert.Equal(t, "boom", snap.Error)

	_, reached := e.Variables.Get("reached")
	assert.False(t, reached, "traversal must stop at the failing node")
}

// TestUnknownNodeTypeIsWarnAndContinues covers the Open Question decision
// that unhandled node types are non-fatal.
func TestUnknownNodeTypeIsWarnAndContinues(t *testing.T) {
	g := graph.New("g1", "unknown", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "mystery", Type: "somethingNobodyRegistered"},
		{ID: "after", Type: "setVariable", Data: map[string]any{"name": "reached", "value": "true", "type": "boolean"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "mystery"},
		{ID: "e2", Source: "mystery", Target: "after"},
	})

	e := newExecutor(g)
	require.NoError(t, e.Run(context.Background()))

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusCompleted, snap.Status)

	var warned bool
	for _, l := range snap.Logs {
		if l.Level == runtime.LevelWarn {
			warned = true
		}
	}
	assert.True(t, warned)

	_, reached := e.Variables.Get("reached")
	assert.True(t, reached)
}

// TestBreakpointPausesThenResumeCompletes covers spec.md scenario S5 and
// testable property 8 (breakpoint fidelity): the runtime pauses exactly at
// the breakpointed node and resuming lets the rest of the graph run.
func TestBreakpointPausesThenResumeCompletes(t *testing.T) {
	g := graph.New("g1", "breakpoint", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "a", Type: "setVariable", Data: map[string]any{"name": "a", "value": "1", "type": "number"}},
		{ID: "b", Type: "setVariable", Data: map[string]any{"name": "b", "value": "2", "type": "number"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "a"},
		{ID: "e2", Source: "a", Target: "b"},
	})

	e := newExecutor(g)
	e.Runtime.AddBreakpoint("b")

	done := make(chan error, 1)
	go func() {
		done <- e.RunDebug(context.Background(), runtime.DebugBreakpoint)
	}()

	waitUntil(t, func() bool {
		return e.Runtime.PausedAtNode() == "b"
	})

	_, bSetBeforeResume := e.Variables.Get("b")
	assert.False(t, bSetBeforeResume, "node b must not have run yet while paused at it")

	e.Runtime.Resume()
	require.NoError(t, <-done)

	snap := e.Runtime.Snapshot()
	assert.Equal(t, runtime.StatusCompleted, snap.Status)
	_, bSet := e.Variables.Get("b")
	assert.True(t, bSet)
}

// TestStepByStepAdvancesOneNodeAtATime covers testable property 7 (step
// determinism): each Step() call unblocks exactly one paused node.
func TestStepByStepAdvancesOneNodeAtATime(t *testing.T) {
	g := graph.New("g1", "stepping", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "a", Type: "setVariable", Data: map[string]any{"name": "a", "value": "1", "type": "number"}},
		{ID: "b", Type: "setVariable", Data: map[string]any{"name": "b", "value": "2", "type": "number"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "a"},
		{ID: "e2", Source: "a", Target: "b"},
	})

	e := newExecutor(g)

	done := make(chan error, 1)
	go func() {
		done <- e.RunDebug(context.Background(), runtime.DebugStepByStep)
	}()

	waitUntil(t, func() bool { return e.Runtime.PausedAtNode() == "start" })
	e.Runtime.Step()

	waitUntil(t, func() bool { return e.Runtime.PausedAtNode() == "a" })
	_, aSet := e.Variables.Get("a")
	assert.False(t, aSet)
	e.Runtime.Step()

	waitUntil(t, func() bool { return e.Runtime.PausedAtNode() == "b" })
	_, aSetNow := e.Variables.Get("a")
	assert.True(t, aSetNow)
	e.Runtime.Step()

	require.NoError(t, <-done)
	_, bSet := e.Variables.Get("b")
	assert.True(t, bSet)
}

// TestSubscribeEmitsNodeEvents covers the SPEC_FULL.md §11.2 optional event
// stream.
func TestSubscribeEmitsNodeEvents(t *testing.T) {
	g := graph.New("g1", "events", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "a", Type: "log", Data: map[string]any{"message": "x"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "a"},
	})

	e := newExecutor(g)
	events := e.Subscribe()

	require.NoError(t, e.Run(context.Background()))

	var kinds []EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, EventNodeEnter)
	assert.Contains(t, kinds, EventNodeExit)
}

// TestClickHandlerViaDesktopDriver smoke-tests that the Executor wires
// Drivers through to node handlers end to end.
func TestClickHandlerViaDesktopDriver(t *testing.T) {
	g := graph.New("g1", "desktop", []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "click", Type: "click", Data: map[string]any{"element": "btn"}},
	}, []graph.Edge{
		{ID: "e1", Source: "start", Target: "click"},
	})

	desktop := automation.NewMemoryDesktop()
	e := New(g, node.NewDispatcher(), node.Drivers{Desktop: desktop})
	require.NoError(t, e.Run(context.Background()))

	assert.NotEmpty(t, desktop.Calls)
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
