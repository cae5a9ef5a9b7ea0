package executor

import "github.com/rpaflow/engine/runtime"

// EventKind discriminates an ExecutionEvent (SPEC_FULL.md §11.2).
type EventKind string

const (
	EventNodeEnter EventKind = "node_enter"
	EventNodeExit  EventKind = "node_exit"
)

// ExecutionEvent is one entry in the optional stream returned by
// Executor.Subscribe, mirroring the node-enter/node-exit events the
// original Tauri frontend listened for over its event bus
// (original_source/src-tauri/src/engine/executor.rs). It is additive:
// nothing in the core traversal depends on a consumer draining it.
type ExecutionEvent struct {
	Kind   EventKind
	NodeID string
	Status runtime.Status
}
