// Package node implements the Node Dispatcher and built-in node handlers
// (spec.md §4.3). Handler shape — read+interpolate data fields, call an
// external capability, optionally write a result variable, always log — is
// grounded on the teacher's PipelineStep family (module/pipeline_step_set.go,
// pipeline_step_log.go, pipeline_step_conditional.go): a Name()+Execute(ctx,
// *PipelineContext) interface built by a per-type factory from a
// map[string]any config, generalized here from pipeline steps to graph
// nodes.
package node

import (
	"context"
	"fmt"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

// ReservedBrowserSession is the internal variable name under which the
// "current" browser session id is stored, for nodes that implicitly target
// the active browser rather than a user-named one (spec.md §9 "Browser
// session naming").
const ReservedBrowserSession = "__current_browser__"

// Drivers bundles the external capability interfaces a handler may call
// (spec.md §6). Any field may be nil; handlers that need an absent driver
// fail with ErrNoDriver.
type Drivers struct {
	Desktop automation.DesktopAutomation
	Web     automation.WebAutomation
	Files   automation.FileSystem
	Shell   automation.Shell
}

// Context is passed to every Handler.Execute call (spec.md §4.3).
type Context struct {
	Ctx       context.Context
	NodeID    string
	Data      map[string]any
	Variables *variable.Store
	Runtime   *runtime.Coordinator
	Drivers   Drivers
}

// Handler is the contract every built-in node type implements (spec.md
// §4.3): read data, call a capability, optionally write a variable, always
// log at least one entry tagged with the node id.
type Handler interface {
	Execute(hc *Context) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(hc *Context) error

func (f HandlerFunc) Execute(hc *Context) error { return f(hc) }

// ErrNoDriver is returned when a handler needs a capability driver that was
// not configured.
var ErrNoDriver = fmt.Errorf("no driver configured for this node type")

// String reads a data field as a string (missing/wrong-type -> "").
func (hc *Context) String(key string) string {
	v, ok := hc.Data[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// InterpString reads and interpolates a string data field (spec.md §4.3:
// "interpolate variables where specified").
func (hc *Context) InterpString(key string) string {
	return hc.Variables.Interpolate(hc.String(key))
}

// Bool reads a data field as a bool.
func (hc *Context) Bool(key string) bool {
	v, ok := hc.Data[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Number reads a data field as a float64, accepting JSON-decoded float64 or
// int.
func (hc *Context) Number(key string) (float64, bool) {
	v, ok := hc.Data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Log appends a log entry tagged with the current node id (spec.md §4.6).
func (hc *Context) Log(level runtime.Level, message string) {
	hc.Runtime.AddLog(level, hc.NodeID, message, "")
}

// LogDetails appends a log entry with a details payload.
func (hc *Context) LogDetails(level runtime.Level, message, details string) {
	hc.Runtime.AddLog(level, hc.NodeID, message, details)
}

// SetResultVariable writes a handler's result into a named output variable
// if the node configured one (spec.md §4.3 step 3: "on success, optionally
// write a result into a named variable").
func (hc *Context) SetResultVariable(key string, v value.Value) {
	name := hc.String(key)
	if name == "" {
		return
	}
	hc.Variables.Set(name, v, variable.ScopeLocal)
}
