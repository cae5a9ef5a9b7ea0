package plugin

import (
	"time"

	"github.com/rpaflow/engine/node"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

// Host is the sandboxed userdata a plugin's execute function receives
// (spec.md §4.5 "Host Context"). Its surface is deliberately narrow: node
// data, the variable store, logging, and a few host utilities — nothing
// that reaches into engine internals beyond what a node handler itself can
// already touch.
type Host struct {
	hc *node.Context
}

func newHost(hc *node.Context) *Host {
	return &Host{hc: hc}
}

// GetData reads one field from the node's data map.
func (h *Host) GetData(key string) any {
	return h.hc.Data[key]
}

// GetAllData returns the node's full data map.
func (h *Host) GetAllData() map[string]any {
	return h.hc.Data
}

// GetVariable reads a variable's JSON-shaped value, or nil if unset.
func (h *Host) GetVariable(name string) any {
	v, ok := h.hc.Variables.Get(name)
	if !ok {
		return nil
	}
	return v.ToJSON()
}

// SetVariable, SetNumber, and SetBoolean cross to the Variable Store
// (spec.md §4.5).
func (h *Host) SetVariable(name, s string) {
	h.hc.Variables.Set(name, value.String(s), variable.ScopeLocal)
}

func (h *Host) SetNumber(name string, n float64) {
	h.hc.Variables.Set(name, value.Number(n), variable.ScopeLocal)
}

func (h *Host) SetBoolean(name string, b bool) {
	h.hc.Variables.Set(name, value.Bool(b), variable.ScopeLocal)
}

// Interpolate delegates to the Variable Store's "${NAME}" substitution.
func (h *Host) Interpolate(text string) string {
	return h.hc.Variables.Interpolate(text)
}

// Log appends a log entry tagged with the current node id at the given
// level ("debug", "info", "warn", "error"); an unrecognized level is
// recorded as-is rather than rejected.
func (h *Host) Log(level, msg string) {
	h.hc.Runtime.AddLog(runtime.Level(level), h.hc.NodeID, msg, "")
}

func (h *Host) Info(msg string)  { h.Log("info", msg) }
func (h *Host) Warn(msg string)  { h.Log("warn", msg) }
func (h *Host) Error(msg string) { h.Log("error", msg) }

// ExecuteCommand spawns a process through the Shell driver and reports
// stdout, stderr, and whether it succeeded.
func (h *Host) ExecuteCommand(cmdName string, args []string) (string, string, bool) {
	if h.hc.Drivers.Shell == nil {
		return "", "no shell driver configured", false
	}
	argv := append([]string{cmdName}, args...)
	stdout, stderr, err := h.hc.Drivers.Shell.ExecuteCommand(h.hc.Ctx, argv, "")
	return stdout, stderr, err == nil
}

// ReadFile and WriteFile reach the host filesystem through the File
// driver, exactly like the built-in readFile/writeFile node types.
func (h *Host) ReadFile(path string) (string, error) {
	if h.hc.Drivers.Files == nil {
		return "", node.ErrNoDriver
	}
	data, err := h.hc.Drivers.Files.ReadFile(h.hc.Ctx, path)
	return string(data), err
}

func (h *Host) WriteFile(path, content string) error {
	if h.hc.Drivers.Files == nil {
		return node.ErrNoDriver
	}
	return h.hc.Drivers.Files.WriteFile(h.hc.Ctx, path, []byte(content), false)
}

// Sleep, Now, and NodeID are small utilities scripts otherwise have no way
// to reach (spec.md §4.5).
func (h *Host) Sleep(ms int) { time.Sleep(time.Duration(ms) * time.Millisecond) }
func (h *Host) Now() int64   { return time.Now().UnixMilli() }
func (h *Host) NodeID() string { return h.hc.NodeID }
