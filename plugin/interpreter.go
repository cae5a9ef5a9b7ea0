// Package plugin implements the Plugin Registry and Script Executor
// (spec.md §4.5): loading plugin script files that evaluate to a
// {name, version, nodes: [...]} record, registering each node type, and
// dispatching unknown node types to the matching node's execute function
// through a narrow Host Context. Evaluation is grounded on the teacher's
// Yaegi-based dynamic component loader (dynamic/interpreter.go,
// dynamic/component.go): a pooled, sandboxed interpreter loads stdlib
// symbols and the engine's own exported plugin SDK types, then interpreted
// code constructs real Go values (plugin.Record, plugin.NodeDef) that
// reflect.Value.Interface() hands back directly — no hand-rolled parsing
// of a second data shape.
package plugin

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/GoCodeAlone/yaegi/interp"
	"github.com/GoCodeAlone/yaegi/stdlib"
)

// sdkImportPath is the engine's own package path, exported into every
// plugin interpreter so scripts can write `plugin.Record{...}` and
// `plugin.NodeDef{...}` literals that become real Go values.
const sdkImportPath = "github.com/rpaflow/engine/plugin"

// InterpreterPool creates sandboxed Yaegi interpreters preloaded with the
// standard library symbols and the plugin SDK.
type InterpreterPool struct {
	mu     sync.Mutex
	goPath string
}

// NewInterpreterPool creates a pool with the given optional GOPATH override.
func NewInterpreterPool(goPath string) *InterpreterPool {
	return &InterpreterPool{goPath: goPath}
}

// NewInterpreter creates an interpreter with stdlib and the plugin SDK
// loaded. Import-allowlist enforcement happens earlier, at source
// validation time (ValidateSource), not here.
func (p *InterpreterPool) NewInterpreter() (*interp.Interpreter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := interp.Options{}
	if p.goPath != "" {
		opts.GoPath = p.goPath
	}

	i := interp.New(opts)

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(sdkSymbols()); err != nil {
		return nil, fmt.Errorf("plugin: failed to load plugin SDK symbols: %w", err)
	}

	return i, nil
}

// sdkSymbols exposes Record, NodeDef, and Host as real importable types so
// interpreted plugin code constructs genuine plugin.Record values rather
// than a synthetic intermediate shape. The Yaegi Exports key convention is
// "<import path>/<package name>", matching how the generated stdlib
// symbol tables (e.g. stdlib.Symbols) key their own entries.
func sdkSymbols() interp.Exports {
	return interp.Exports{
		sdkImportPath + "/plugin": {
			"Record":  reflect.ValueOf(Record{}),
			"NodeDef": reflect.ValueOf(NodeDef{}),
			"Host":    reflect.ValueOf((*Host)(nil)),
		},
	}
}

// SDKImportPath returns the import path plugin scripts use to reach the
// Record/NodeDef/Host types (exposed for ValidateSource's allowlist).
func SDKImportPath() string { return sdkImportPath }
