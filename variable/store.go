// Package variable implements the workflow Variable Store (spec.md §3, §4.1):
// a named map of dynamically-typed Values with scope tags and a
// text-interpolation helper. The template-resolution approach is grounded on
// the teacher's module.TemplateEngine (pipeline_template.go), but
// interpolate() cannot reuse text/template directly: spec.md §4.1 requires a
// single non-recursive left-to-right pass over literal "${NAME}" tokens,
// which is a different substitution model than Go's template engine
// provides, so the token scanner below is hand-rolled (justified stdlib use;
// see DESIGN.md).
package variable

import (
	"strings"
	"sync"

	"github.com/rpaflow/engine/value"
)

// Scope tags a Variable as Global or Local. The engine currently treats both
// as one flat namespace (spec.md §3, §9 "Local variable scope") but
// preserves the tag so a future sub-scope cleanup can drop only Local
// entries without disturbing Global state.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeLocal
)

// Variable is one named entry in the Store.
type Variable struct {
	Name  string
	Value value.Value
	Scope Scope
}

// Store is the single-writer-guarded flat variable namespace shared by one
// workflow run. All operations are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	vars map[string]Variable
}

// New creates an empty Store.
func New() *Store {
	return &Store{vars: make(map[string]Variable)}
}

// Set creates or overwrites a variable.
func (s *Store) Set(name string, v value.Value, scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = Variable{Name: name, Value: v, Scope: scope}
}

// Get returns the variable's value and whether it was present.
func (s *Store) Get(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return value.Null, false
	}
	return v.Value, true
}

// Remove deletes a variable by name. It is a no-op if absent.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, name)
}

// ClearLocal drops every Local-scoped variable, retaining Global entries.
func (s *Store) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range s.vars {
		if v.Scope == ScopeLocal {
			delete(s.vars, name)
		}
	}
}

// All returns a snapshot slice of every variable, sorted by name so
// repeated snapshots (e.g. for the debugger) are stable.
func (s *Store) All() []Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Variable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	sortVariables(out)
	return out
}

func sortVariables(vars []Variable) {
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && vars[j-1].Name > vars[j].Name; j-- {
			vars[j-1], vars[j] = vars[j], vars[j-1]
		}
	}
}

// Interpolate replaces every "${NAME}" token in text with the display
// string of variable NAME, in a single left-to-right pass. Unknown names
// are left intact, and substituted values are never re-scanned for further
// tokens (spec.md §4.1 invariant: no recursive expansion).
func (s *Store) Interpolate(text string) string {
	if !strings.Contains(text, "${") {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(text) {
		start := strings.Index(text[i:], "${")
		if start == -1 {
			out.WriteString(text[i:])
			break
		}
		start += i
		out.WriteString(text[i:start])

		end := strings.IndexByte(text[start+2:], '}')
		if end == -1 {
			// Unterminated token: emit the rest verbatim and stop.
			out.WriteString(text[start:])
			i = len(text)
			break
		}
		end += start + 2

		name := text[start+2 : end]
		if v, ok := s.Get(name); ok {
			out.WriteString(v.Display())
		} else {
			out.WriteString(text[start : end+1])
		}
		i = end + 1
	}

	return out.String()
}
