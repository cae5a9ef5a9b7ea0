package node

import (
	"fmt"

	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

func registerBuiltins(d *Dispatcher) {
	// Markers (spec.md §4.3): no-op. The Executor never actually invokes
	// these through the Dispatcher for outgoing-edge purposes since start
	// has no special routing need and end naturally terminates traversal,
	// but registering them keeps Dispatch total for these types.
	d.Register("start", HandlerFunc(func(hc *Context) error {
		hc.Log(runtime.LevelInfo, "workflow started")
		return nil
	}))
	d.Register("end", HandlerFunc(func(hc *Context) error {
		hc.Log(runtime.LevelInfo, "workflow ended")
		return nil
	}))

	d.Register("setVariable", HandlerFunc(setVariableHandler))
	d.Register("log", HandlerFunc(logHandler))
	d.Register("delay", HandlerFunc(delayHandler))

	registerDesktopHandlers(d)
	registerWebHandlers(d)
	registerFileHandlers(d)
	registerProcessHandlers(d)
}

// setVariableHandler implements spec.md §4.3/§4.1: interpolate the value
// string, then coerce by the declared type.
func setVariableHandler(hc *Context) error {
	name := hc.String("name")
	if name == "" {
		return fmt.Errorf("setVariable: 'name' is required")
	}
	raw := hc.InterpString("value")
	typ := hc.String("type")

	var v value.Value
	switch typ {
	case "number":
		v = value.ParseNumber(raw)
	case "boolean":
		v = value.ParseBoolean(raw)
	case "json":
		v = value.ParseJSONCoerce(raw)
	default:
		v = value.String(raw)
	}

	scope := variable.ScopeGlobal
	if hc.String("scope") == "local" {
		scope = variable.ScopeLocal
	}
	hc.Variables.Set(name, v, scope)

	hc.Log(runtime.LevelInfo, fmt.Sprintf("set variable %q = %s", name, v.Display()))
	return nil
}

// logHandler implements spec.md §4.3: interpolate and append.
func logHandler(hc *Context) error {
	message := hc.InterpString("message")
	level := runtime.LevelInfo
	switch hc.String("level") {
	case "debug":
		level = runtime.LevelDebug
	case "warn":
		level = runtime.LevelWarn
	case "error":
		level = runtime.LevelError
	}
	hc.Log(level, message)
	return nil
}
