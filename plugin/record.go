package plugin

// Record is the manifest a plugin script evaluates to (spec.md §4.5): a
// named, versioned bundle of one or more node type definitions.
type Record struct {
	Name        string
	Version     string
	Description string
	Author      string
	Nodes       []NodeDef
}

// NodeDef describes one node type a plugin contributes to the Registry.
// Execute is invoked with a Host built fresh for each dispatch; its return
// value follows spec.md §4.5's convention: nil or true means success,
// false means a generic failure, and a string return carries a specific
// error message.
type NodeDef struct {
	Type     string
	Label    string
	Category string
	Icon     string
	Color    string
	Contract *FieldContract
	Execute  func(*Host) any
}
