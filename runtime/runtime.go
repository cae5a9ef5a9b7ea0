// Package runtime implements the per-execution Runtime State and its single
// coordinator (spec.md §3, §4.2): status, current node, log buffer, and the
// debug sub-state (mode, breakpoints, step latch, paused-node marker). The
// mutex-guarded, single-writer/non-blocking-reader discipline is grounded on
// the teacher's module.StateMachineEngine (module/state_machine.go), whose
// sync.RWMutex-guarded instance map and explicit lifecycle methods this
// Coordinator generalizes to the spec's fixed five-state lifecycle plus debug
// control, rather than the teacher's open-ended named-state/transition
// model (which has no fixed terminal/absorbing semantics to reuse as-is).
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the execution status state machine (spec.md §3).
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DebugMode selects how should_pause_at_node behaves (spec.md §3).
type DebugMode string

const (
	DebugNone        DebugMode = "none"
	DebugStepByStep  DebugMode = "step"
	DebugBreakpoint  DebugMode = "breakpoint"
)

// Level is a log entry's severity (spec.md §3).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogEntry is one append-only record in the Runtime's log buffer.
type LogEntry struct {
	ID        string
	Timestamp time.Time
	Level     Level
	NodeID    string
	Message   string
	Details   string
}

// DebugState holds the debugger's mutable fields (spec.md §3).
type DebugState struct {
	Mode         DebugMode
	Breakpoints  map[string]bool
	StepPending  bool
	PausedAtNode string
}

// State is a point-in-time snapshot of the Runtime, safe to read after the
// Coordinator's lock is released (spec.md §7 "User-visible surface").
type State struct {
	WorkflowID    string
	Status        Status
	CurrentNodeID string
	StartTime     time.Time
	EndTime       time.Time
	Logs          []LogEntry
	Error         string
	Debug         DebugState
}

// Coordinator is the single-writer guard over one workflow execution's
// Runtime State (spec.md §4.2). Writers hold the exclusive lock; Snapshot
// is a non-blocking reader copy for UI/debugger polling (spec.md §5).
type Coordinator struct {
	mu    sync.Mutex
	state State

	pollInterval time.Duration
}

// New creates an Idle Coordinator for a fresh workflow run.
func New(workflowID string) *Coordinator {
	if workflowID == "" {
		workflowID = uuid.NewString()
	}
	return &Coordinator{
		state: State{
			WorkflowID: workflowID,
			Status:     StatusIdle,
			Debug: DebugState{
				Mode:        DebugNone,
				Breakpoints: make(map[string]bool),
			},
		},
		pollInterval: 50 * time.Millisecond,
	}
}

// Snapshot returns a deep-enough copy of the current state for safe
// concurrent reading.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

func (c *Coordinator) copyState() State {
	s := c.state
	s.Logs = append([]LogEntry(nil), c.state.Logs...)
	bp := make(map[string]bool, len(c.state.Debug.Breakpoints))
	for k, v := range c.state.Debug.Breakpoints {
		bp[k] = v
	}
	s.Debug.Breakpoints = bp
	return s
}

// Start transitions Idle -> Running with debug mode None.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = StatusRunning
	c.state.StartTime = time.Now()
	c.state.Debug.Mode = DebugNone
}

// StartDebug transitions Idle -> Running with the given debug mode.
func (c *Coordinator) StartDebug(mode DebugMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = StatusRunning
	c.state.StartTime = time.Now()
	c.state.Debug.Mode = mode
}

// Pause requests an explicit pause (distinct from a debugger pause at a
// node); status becomes Paused while debug mode need not be set.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Status = StatusPaused
}

// Resume clears stepPending and pausedAtNode and sets status Running
// (spec.md §4.2).
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Debug.StepPending = false
	c.state.Debug.PausedAtNode = ""
	c.state.Status = StatusRunning
}

// Step sets stepPending=true and status Running; the Executor consumes one
// node and re-pauses if still in StepByStep (spec.md §4.2).
func (c *Coordinator) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Debug.StepPending = true
	c.state.Status = StatusRunning
}

// Complete transitions to the terminal Completed status.
func (c *Coordinator) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Status = StatusCompleted
	c.state.EndTime = time.Now()
	c.state.Debug.Mode = DebugNone
}

// Fail transitions to the terminal Failed status and records the error.
// Once called, Failed is absorbing: every later call to Fail, Complete, or
// a state transition is a no-op (spec.md §4.2).
func (c *Coordinator) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Status = StatusFailed
	c.state.EndTime = time.Now()
	if err != nil {
		c.state.Error = err.Error()
	}
	c.state.Debug.Mode = DebugNone
}

// IsFailed reports whether the runtime has already failed (fast,
// lock-guarded check used by the Executor's short-circuit, spec.md §4.2).
func (c *Coordinator) IsFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status == StatusFailed
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status
}

// SetCurrentNode records the node id currently being visited.
func (c *Coordinator) SetCurrentNode(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentNodeID = id
}

// AddLog appends a log entry under the state lock.
func (c *Coordinator) AddLog(level Level, nodeID, message, details string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Logs = append(c.state.Logs, LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Level:     level,
		NodeID:    nodeID,
		Message:   message,
		Details:   details,
	})
}

// AddBreakpoint adds a node id to the breakpoint set.
func (c *Coordinator) AddBreakpoint(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Debug.Breakpoints[nodeID] = true
}

// RemoveBreakpoint removes a node id from the breakpoint set.
func (c *Coordinator) RemoveBreakpoint(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Debug.Breakpoints, nodeID)
}

// ClearBreakpoints empties the breakpoint set.
func (c *Coordinator) ClearBreakpoints() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Debug.Breakpoints = make(map[string]bool)
}

// HasBreakpoint reports whether nodeID is currently breakpointed.
func (c *Coordinator) HasBreakpoint(nodeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Debug.Breakpoints[nodeID]
}

// ShouldPauseAtNode implements spec.md §4.2: true iff debug mode is
// StepByStep, or debug mode is Breakpoint and id is breakpointed.
func (c *Coordinator) ShouldPauseAtNode(nodeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Debug.Mode {
	case DebugStepByStep:
		return true
	case DebugBreakpoint:
		return c.state.Debug.Breakpoints[nodeID]
	default:
		return false
	}
}

// PauseAtNode flips status to Paused and records pausedAtNode (spec.md
// §4.2). It also consumes any pending step, so the next WaitForStep blocks
// until another Step or Resume.
func (c *Coordinator) PauseAtNode(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status.Terminal() {
		return
	}
	c.state.Status = StatusPaused
	c.state.Debug.PausedAtNode = nodeID
	c.state.Debug.StepPending = false
}

// WaitForStep blocks cooperatively until status != Paused or stepPending is
// true (spec.md §4.2, §5 "Debug blocking"). It polls at pollInterval, which
// is an acceptable equivalent to a condition-variable wake per spec.md §5.
func (c *Coordinator) WaitForStep() {
	for {
		c.mu.Lock()
		status := c.state.Status
		stepPending := c.state.Debug.StepPending
		c.mu.Unlock()

		if status != StatusPaused || stepPending {
			return
		}
		if status.Terminal() {
			return
		}
		time.Sleep(c.pollInterval)
	}
}

// PausedAtNode returns the node id the runtime is currently paused at, or ""
// if not paused.
func (c *Coordinator) PausedAtNode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Debug.PausedAtNode
}

// DebugModeValue returns the current debug mode.
func (c *Coordinator) DebugModeValue() DebugMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Debug.Mode
}

// ErrorString returns the stringified error recorded on Fail, if any.
func (c *Coordinator) ErrorString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Error
}

// String implements fmt.Stringer for debug/log convenience.
func (s State) String() string {
	return fmt.Sprintf("Runtime{workflow=%s status=%s node=%s}", s.WorkflowID, s.Status, s.CurrentNodeID)
}
