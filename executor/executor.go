// Package executor implements the Executor: the recursive graph walker that
// threads runtime state, honors control-flow routing, implements
// debugging, and dispatches each node (spec.md §4.4). The depth-first,
// no-visited-set traversal (spec.md §9 "Recursive traversal vs cycles") is
// deliberate — the graph may contain back-edges for while-loops and
// retries, so acyclicity is never assumed, matching the teacher's
// ForEachStep/RetryWithBackoffStep pattern of re-entering a sub-step chain
// per iteration/attempt rather than walking a DAG once
// (module/pipeline_step_foreach.go, module/pipeline_step_resilience.go).
package executor

import (
	"context"
	"fmt"

	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/node"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/variable"
)

// loopSafetyLimit caps "while" loop iterations (spec.md §4.4, testable
// property 5).
const loopSafetyLimit = 10000

// controlFlowTypes are routed exclusively through their specialized
// routines, never through the normal Dispatcher (spec.md §9 Open
// Questions: "implementations should route them exclusively through the
// specialized path").
var controlFlowTypes = map[string]bool{
	"condition": true,
	"loop":      true,
	"forEach":   true,
	"tryCatch":  true,
}

// Executor runs one workflow execution against a Graph, Runtime, and
// Variable Store (spec.md §2, §4.4).
type Executor struct {
	Graph      *graph.Graph
	Runtime    *runtime.Coordinator
	Variables  *variable.Store
	Dispatcher *node.Dispatcher
	Drivers    node.Drivers

	events chan ExecutionEvent
}

// New creates an Executor wired to a Graph, a fresh Runtime Coordinator,
// and a fresh Variable Store.
func New(g *graph.Graph, dispatcher *node.Dispatcher, drivers node.Drivers) *Executor {
	return &Executor{
		Graph:      g,
		Runtime:    runtime.New(g.ID),
		Variables:  variable.New(),
		Dispatcher: dispatcher,
		Drivers:    drivers,
	}
}

// Subscribe returns a channel of ExecutionEvents emitted as the traversal
// proceeds (SPEC_FULL.md §11.2, grounded on the original Tauri
// implementation's frontend event emission,
// original_source/src-tauri/src/engine/executor.rs). The channel is
// buffered; a slow or absent consumer never blocks traversal — events are
// dropped rather than backing up the executor.
func (e *Executor) Subscribe() <-chan ExecutionEvent {
	ch := make(chan ExecutionEvent, 256)
	e.events = ch
	return ch
}

func (e *Executor) emit(kind EventKind, nodeID string) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- ExecutionEvent{Kind: kind, NodeID: nodeID, Status: e.Runtime.Status()}:
	default:
	}
}

// Run executes the graph starting at its unique start node with debugging
// disabled (spec.md §4.4).
func (e *Executor) Run(ctx context.Context) error {
	return e.run(ctx, runtime.DebugNone)
}

// RunDebug executes the graph with the given debug mode active from the
// first node (spec.md §3 "Debug mode").
func (e *Executor) RunDebug(ctx context.Context, mode runtime.DebugMode) error {
	return e.run(ctx, mode)
}

func (e *Executor) run(ctx context.Context, mode runtime.DebugMode) error {
	start, err := e.Graph.StartNode()
	if err != nil {
		e.Runtime.Fail(err)
		return err
	}

	if mode == runtime.DebugNone {
		e.Runtime.Start()
	} else {
		e.Runtime.StartDebug(mode)
	}

	err = e.visit(ctx, start.ID, false)
	if err != nil {
		e.Runtime.Fail(err)
		if e.events != nil {
			close(e.events)
			e.events = nil
		}
		return err
	}

	e.Runtime.Complete()
	if e.events != nil {
		close(e.events)
		e.events = nil
	}
	return nil
}

// visit implements the per-node traversal steps of spec.md §4.4. underTry
// is true while visiting inside the "try" subtree of an enclosing
// tryCatch — handler errors there are returned to that tryCatch's retry
// loop instead of failing the runtime immediately.
func (e *Executor) visit(ctx context.Context, nodeID string, underTry bool) error {
	// Step 1: check status; short-circuits every recursive invocation once
	// the runtime has failed (spec.md §4.2, testable property 9).
	if e.Runtime.IsFailed() {
		return nil
	}

	// Step 2: wait_for_step (debug cooperative suspension point, spec.md §5).
	e.Runtime.WaitForStep()

	// Step 3: re-check status.
	if e.Runtime.IsFailed() {
		return nil
	}

	n, ok := e.Graph.Node(nodeID)
	if !ok {
		err := fmt.Errorf("%w: node %q not found", graph.ErrInvalidWorkflow, nodeID)
		if !underTry {
			e.Runtime.Fail(err)
		}
		return err
	}

	// Step 4: set current node and emit an "executing" log.
	e.Runtime.SetCurrentNode(nodeID)
	e.Runtime.AddLog(runtime.LevelDebug, nodeID, fmt.Sprintf("executing %s (%s)", nodeID, n.Type), "")
	e.emit(EventNodeEnter, nodeID)

	// Step 5: pause for debug if requested.
	if e.Runtime.ShouldPauseAtNode(nodeID) {
		e.Runtime.PauseAtNode(nodeID)
		e.Runtime.WaitForStep()
		if e.Runtime.IsFailed() {
			return nil
		}
	}

	// Step 6: control-flow types own their edge routing exclusively.
	if controlFlowTypes[n.Type] {
		return e.dispatchControlFlow(ctx, n, underTry)
	}

	// Step 7: normal dispatch, then traverse plain outgoing edges in order.
	hc := &node.Context{
		Ctx:       ctx,
		NodeID:    nodeID,
		Data:      n.Data,
		Variables: e.Variables,
		Runtime:   e.Runtime,
		Drivers:   e.Drivers,
	}

	unhandled, err := e.Dispatcher.Dispatch(n.Type, hc)
	if unhandled {
		// spec.md §9 Open Questions: unknown node types should emit a
		// Warn, not an Info, log and continue (non-fatal).
		e.Runtime.AddLog(runtime.LevelWarn, nodeID, fmt.Sprintf("unknown node type %q, skipping", n.Type), "")
	} else if err != nil {
		e.Runtime.AddLog(runtime.LevelError, nodeID, err.Error(), "")
		if !underTry {
			e.Runtime.Fail(err)
		}
		return err
	}

	e.emit(EventNodeExit, nodeID)

	for _, edge := range e.Graph.PlainOutEdges(nodeID) {
		if err := e.visit(ctx, edge.Target, underTry); err != nil {
			return err
		}
	}
	return nil
}

// traverseBranch visits every target reachable from nodeID's edges tagged
// with the given source handle, in declaration order (spec.md §4.4
// "Ordering").
func (e *Executor) traverseBranch(ctx context.Context, nodeID, handle string, underTry bool) error {
	for _, edge := range e.Graph.OutEdgesByHandle(nodeID, handle) {
		if err := e.visit(ctx, edge.Target, underTry); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) dispatchControlFlow(ctx context.Context, n *graph.Node, underTry bool) error {
	switch n.Type {
	case "condition":
		return e.runCondition(ctx, n, underTry)
	case "loop":
		return e.runLoop(ctx, n, underTry)
	case "forEach":
		return e.runForEach(ctx, n, underTry)
	case "tryCatch":
		return e.runTryCatch(ctx, n, underTry)
	default:
		return fmt.Errorf("executor: unreachable control-flow type %q", n.Type)
	}
}

func dataString(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func dataNumber(data map[string]any, key string) float64 {
	v, ok := data[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
