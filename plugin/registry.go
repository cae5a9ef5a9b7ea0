package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rpaflow/engine/node"
)

// pluginEntry tracks where a loaded plugin's source lives and the metadata
// it last evaluated to.
type pluginEntry struct {
	sourcePath string
	record     Record
}

// Registry is the Plugin Registry of spec.md §4.5: a concurrent map from
// node type to owning plugin, and from plugin name to its source location.
// It implements node.PluginDispatcher, so a node.Dispatcher can fall back to
// it for any node type the built-in handlers don't own.
type Registry struct {
	mu           sync.RWMutex
	pool         *InterpreterPool
	plugins      map[string]pluginEntry
	nodeToPlugin map[string]string
}

// NewRegistry creates an empty registry backed by the given interpreter
// pool.
func NewRegistry(pool *InterpreterPool) *Registry {
	return &Registry{
		pool:         pool,
		plugins:      make(map[string]pluginEntry),
		nodeToPlugin: make(map[string]string),
	}
}

// LoadFromString validates and evaluates source once (to discover the
// node types it declares and fail fast on a malformed plugin), then
// registers every node type it exports against the given sourcePath for
// later re-evaluation.
func (r *Registry) LoadFromString(source, sourcePath string) (Record, error) {
	if err := ValidateSource(source); err != nil {
		return Record{}, err
	}

	record, err := r.evaluateSource(source)
	if err != nil {
		return Record{}, err
	}
	if record.Name == "" {
		return Record{}, fmt.Errorf("plugin: %s: missing name", sourcePath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[record.Name] = pluginEntry{sourcePath: sourcePath, record: record}
	for _, def := range record.Nodes {
		r.nodeToPlugin[def.Type] = record.Name
	}
	return record, nil
}

// LoadFromFile reads a plugin script from disk and loads it.
func (r *Registry) LoadFromFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("plugin: reading %s: %w", path, err)
	}
	return r.LoadFromString(string(data), path)
}

// LoadFromDirectory loads every *.go file in dir non-recursively. A
// malformed plugin is skipped rather than aborting the whole directory —
// one bad script shouldn't prevent the rest of the plugin set from loading.
func (r *Registry) LoadFromDirectory(dir string) ([]Record, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("plugin: reading dir %s: %w", dir, err)}
	}

	var loaded []Record
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		record, err := r.LoadFromFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, record)
	}
	return loaded, errs
}

// Unload removes a plugin and every node type it owns.
func (r *Registry) Unload(pluginName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unloadLocked(pluginName)
}

func (r *Registry) unloadLocked(pluginName string) {
	entry, ok := r.plugins[pluginName]
	if !ok {
		return
	}
	for _, def := range entry.record.Nodes {
		if r.nodeToPlugin[def.Type] == pluginName {
			delete(r.nodeToPlugin, def.Type)
		}
	}
	delete(r.plugins, pluginName)
}

// UnloadPath removes whichever plugin was loaded from sourcePath,
// regardless of its declared Name — used when a watched file is deleted
// and only its path, not its record, is known.
func (r *Registry) UnloadPath(sourcePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, entry := range r.plugins {
		if entry.sourcePath == sourcePath {
			r.unloadLocked(name)
			return
		}
	}
}

// Plugins lists every currently-loaded plugin record.
func (r *Registry) Plugins() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.plugins))
	for _, entry := range r.plugins {
		out = append(out, entry.record)
	}
	return out
}

// Owns reports whether nodeType is currently served by a loaded plugin.
func (r *Registry) Owns(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodeToPlugin[nodeType]
	return ok
}

// Dispatch implements node.PluginDispatcher. Per spec.md §4.5, the
// plugin's source is re-evaluated fresh on every dispatch — a plugin
// file can be hot-edited and the very next node execution picks up the
// change, with no interpreter state cached between calls.
func (r *Registry) Dispatch(nodeType string, hc *node.Context) (bool, error) {
	r.mu.RLock()
	pluginName, ok := r.nodeToPlugin[nodeType]
	var entry pluginEntry
	if ok {
		entry = r.plugins[pluginName]
	}
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	record, err := r.evaluateFile(entry.sourcePath)
	if err != nil {
		return true, fmt.Errorf("plugin %q: %w", pluginName, err)
	}

	var def *NodeDef
	for i := range record.Nodes {
		if record.Nodes[i].Type == nodeType {
			def = &record.Nodes[i]
			break
		}
	}
	if def == nil || def.Execute == nil {
		return true, fmt.Errorf("plugin %q: node type %q has no execute function", pluginName, nodeType)
	}

	if err := ValidateInputs(def.Contract, hc.Data); err != nil {
		return true, err
	}
	hc.Data = ApplyDefaults(def.Contract, hc.Data)

	host := newHost(hc)
	result := def.Execute(host)
	return true, interpretResult(nodeType, result)
}

// interpretResult applies spec.md §4.5's execute-return convention: nil or
// true means success, false is a generic failure, and a string return
// carries a specific error message.
func interpretResult(nodeType string, result any) error {
	switch v := result.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return nil
		}
		return fmt.Errorf("plugin node %q failed", nodeType)
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("plugin node %q returned unexpected value %v", nodeType, v)
	}
}

func (r *Registry) evaluateFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return r.evaluateSource(string(data))
}

// evaluateSource runs source in a fresh interpreter and extracts the
// package-level "Plugin" variable, which must evaluate to a plugin.Record.
func (r *Registry) evaluateSource(source string) (Record, error) {
	i, err := r.pool.NewInterpreter()
	if err != nil {
		return Record{}, err
	}

	if _, err := i.Eval(source); err != nil {
		return Record{}, fmt.Errorf("evaluating plugin source: %w", err)
	}

	v, err := i.Eval("Plugin")
	if err != nil {
		return Record{}, fmt.Errorf("plugin source must declare a package-level var named Plugin: %w", err)
	}

	record, ok := v.Interface().(Record)
	if !ok {
		return Record{}, fmt.Errorf("plugin source's Plugin var must be a plugin.Record, got %T", v.Interface())
	}
	return record, nil
}
