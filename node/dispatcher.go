package node

import "sync"

// PluginDispatcher is satisfied by the plugin Registry (package plugin) and
// lets the Dispatcher delegate unknown node types without importing the
// plugin package directly (the engine package wires the two together).
type PluginDispatcher interface {
	// Dispatch runs the node type's plugin-provided handler, if one is
	// registered for it. handled is false if no plugin owns nodeType.
	Dispatch(nodeType string, hc *Context) (handled bool, err error)
}

// Dispatcher maps node type to a built-in Handler, falling back to a
// PluginDispatcher for unknown types (spec.md §4.3).
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	plugins  PluginDispatcher
}

// NewDispatcher creates a Dispatcher pre-populated with every built-in node
// type (spec.md §4.3).
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	registerBuiltins(d)
	return d
}

// SetPluginDispatcher wires the Plugin Registry as the fallback for unknown
// node types.
func (d *Dispatcher) SetPluginDispatcher(p PluginDispatcher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.plugins = p
}

// Register adds or replaces the handler for a node type.
func (d *Dispatcher) Register(nodeType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[nodeType] = h
}

// Has reports whether a built-in handler is registered for nodeType.
func (d *Dispatcher) Has(nodeType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[nodeType]
	return ok
}

// Dispatch runs the handler for a node's type. If no built-in handler is
// registered, it falls back to the Plugin Registry. If neither owns the
// type, it reports unhandled=true (the Executor logs a Warn and continues,
// spec.md §4.3, §9 Open Questions).
func (d *Dispatcher) Dispatch(nodeType string, hc *Context) (unhandled bool, err error) {
	d.mu.RLock()
	h, ok := d.handlers[nodeType]
	plugins := d.plugins
	d.mu.RUnlock()

	if ok {
		return false, h.Execute(hc)
	}

	if plugins != nil {
		handled, perr := plugins.Dispatch(nodeType, hc)
		if handled {
			return false, perr
		}
	}

	return true, nil
}
