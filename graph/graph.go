// Package graph implements the immutable workflow Graph Model: nodes, edges,
// and the JSON persistence format described in spec.md §3 and §6. The shape
// mirrors the teacher's config.WorkflowConfig (a named, versioned document
// with typed sub-collections) generalized from module configuration to a
// directed node/edge graph.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Node is one step in the graph (spec.md §3). Data is opaque to the graph
// model itself; node handlers interpret known keys per type.
type Node struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Data  map[string]any `json:"data,omitempty"`
	Label string         `json:"label,omitempty"`

	// Position is carried purely for lossless round-trip with the
	// front-end's canvas layout (spec.md §6 node wire shape); the engine
	// never reads it.
	Position *Position `json:"position,omitempty"`
}

// Position is the front-end's canvas coordinate for a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection between two nodes, optionally discriminated
// by source/target handle for control-flow branches (spec.md §3).
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Graph is the immutable-after-load workflow definition (spec.md §3).
type Graph struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	nodesByID    map[string]*Node
	outEdges     map[string][]Edge
}

// StartNodeType is the well-known entry-point node type (spec.md §3).
const StartNodeType = "start"

// Parse decodes JSON graph data and builds the lookup indexes used by the
// executor. It does not validate invariants; call Validate for that.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("graph: invalid JSON: %w", err)
	}
	g.index()
	return &g, nil
}

// New constructs a Graph from in-memory nodes/edges and builds its indexes.
// Used by callers building graphs programmatically (e.g. tests).
func New(id, name string, nodes []Node, edges []Edge) *Graph {
	g := &Graph{ID: id, Name: name, Nodes: nodes, Edges: edges}
	g.index()
	return g
}

func (g *Graph) index() {
	g.nodesByID = make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		g.nodesByID[g.Nodes[i].ID] = &g.Nodes[i]
	}
	g.outEdges = make(map[string][]Edge, len(g.Nodes))
	for _, e := range g.Edges {
		g.outEdges[e.Source] = append(g.outEdges[e.Source], e)
	}
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodesByID[id]
	return n, ok
}

// OutEdges returns a node's outgoing edges in graph-declaration order
// (spec.md §4.4 "Ordering").
func (g *Graph) OutEdges(nodeID string) []Edge {
	return g.outEdges[nodeID]
}

// OutEdgesByHandle filters OutEdges to those whose SourceHandle matches,
// preserving declaration order. Used by control-flow routing (spec.md
// §4.4).
func (g *Graph) OutEdgesByHandle(nodeID, handle string) []Edge {
	all := g.outEdges[nodeID]
	out := make([]Edge, 0, len(all))
	for _, e := range all {
		if e.SourceHandle == handle {
			out = append(out, e)
		}
	}
	return out
}

// PlainOutEdges returns outgoing edges with no source handle — the edges a
// normal (non-control-flow) node's traversal follows (spec.md §4.4 step 7).
func (g *Graph) PlainOutEdges(nodeID string) []Edge {
	all := g.outEdges[nodeID]
	out := make([]Edge, 0, len(all))
	for _, e := range all {
		if e.SourceHandle == "" {
			out = append(out, e)
		}
	}
	return out
}

// StartNode returns the graph's unique start node.
func (g *Graph) StartNode() (*Node, error) {
	var found *Node
	for i := range g.Nodes {
		if g.Nodes[i].Type == StartNodeType {
			if found != nil {
				return nil, fmt.Errorf("%w: more than one start node", ErrInvalidWorkflow)
			}
			found = &g.Nodes[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no start node", ErrInvalidWorkflow)
	}
	return found, nil
}

// ErrInvalidWorkflow is the sentinel wrapped by graph invariant violations,
// matching the InvalidWorkflow error kind in spec.md §6.
var ErrInvalidWorkflow = fmt.Errorf("invalid workflow")

// Validate checks the spec.md §3 invariants: unique node ids, exactly one
// start node, and no dangling edges. Grounded on the original Tauri
// implementation's dedicated workflow-validation command
// (original_source/src-tauri/src/commands/workflow.rs) — see SPEC_FULL.md
// §11.3.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node with empty id", ErrInvalidWorkflow)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidWorkflow, n.ID)
		}
		seen[n.ID] = true
	}

	if _, err := g.StartNode(); err != nil {
		return err
	}

	for _, e := range g.Edges {
		if !seen[e.Source] {
			return fmt.Errorf("%w: edge %q references unknown source %q", ErrInvalidWorkflow, e.ID, e.Source)
		}
		if !seen[e.Target] {
			return fmt.Errorf("%w: edge %q references unknown target %q", ErrInvalidWorkflow, e.ID, e.Target)
		}
	}

	return nil
}

// Import assigns a fresh id to an imported graph (spec.md §6: "Imported
// graphs receive a fresh id; exports preserve ids").
func Import(data []byte) (*Graph, error) {
	g, err := Parse(data)
	if err != nil {
		return nil, err
	}
	g.ID = uuid.NewString()
	return g, nil
}

// Export serializes the graph, preserving its id, as the canonical JSON
// wire format (spec.md §6).
func (g *Graph) Export() ([]byte, error) {
	return json.Marshal(g)
}
