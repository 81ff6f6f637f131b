package engine

import "fmt"

// NodeID addresses a node within one template. The empty string is the
// NoNode sentinel: a runner whose cursor reaches NoNode has finished
// its graph.
type NodeID string

// NoNode is the terminal sentinel. Transitions targeting NoNode end the
// graph; a runner parked on NoNode does nothing until rebound.
const NoNode NodeID = ""

// NodeKind classifies a node definition. Composite kinds (Selector,
// Sequence, Parallel, Decorator) are authoring-time structure: the
// loader compiles them into the NextOnSuccess/NextOnFailure pointers of
// atomic leaves, and the executor only ever dispatches KindAtomicTask
// nodes.
type NodeKind uint8

const (
	KindInvalid NodeKind = iota
	KindSelector
	KindSequence
	KindParallel
	KindDecorator
	KindAtomicTask
)

// String returns the canonical template name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindSelector:
		return "selector"
	case KindSequence:
		return "sequence"
	case KindParallel:
		return "parallel"
	case KindDecorator:
		return "decorator"
	case KindAtomicTask:
		return "task"
	default:
		return "invalid"
	}
}

// ParseNodeKind maps a template kind name to its NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "selector":
		return KindSelector, nil
	case "sequence":
		return KindSequence, nil
	case "parallel":
		return KindParallel, nil
	case "decorator":
		return KindDecorator, nil
	case "task":
		return KindAtomicTask, nil
	default:
		return KindInvalid, fmt.Errorf("engine: unknown node kind %q", s)
	}
}

// ParamBinding is one entry of a node's parameter map: either a literal
// value used as-is, or the name of a blackboard variable read live at
// dispatch time. Exactly one of the two is set.
type ParamBinding struct {
	Literal      Value
	FromVariable string
}

// LiteralBinding binds a parameter to a fixed value.
func LiteralBinding(v Value) ParamBinding { return ParamBinding{Literal: v} }

// VariableBinding binds a parameter to a blackboard variable.
func VariableBinding(name string) ParamBinding { return ParamBinding{FromVariable: name} }

// IsVariable reports whether the binding reads from the blackboard.
func (p ParamBinding) IsVariable() bool { return p.FromVariable != "" }

// NodeDefinition is one node of a template. Identity is the ID, unique
// within the template. Composite nodes carry Children (Decorator exactly
// one, plus RepeatCount); atomic nodes carry the referenced task
// identity and its parameter bindings. NextOnSuccess/NextOnFailure name
// the node the cursor moves to when this node, executed as the active
// leaf, completes with that status.
type NodeDefinition struct {
	ID            NodeID
	Kind          NodeKind
	Children      []NodeID
	RepeatCount   int
	TaskID        string
	Params        map[string]ParamBinding
	NextOnSuccess NodeID
	NextOnFailure NodeID
}

// Template is the immutable, shared description of one task graph: the
// node table, the root id, and the declared variables with defaults.
// Templates are built once by the loader, validated here, and read
// concurrently by any number of runners without locking.
type Template struct {
	Name      string
	RootNode  NodeID
	Nodes     []NodeDefinition
	Variables []VariableDecl

	index map[NodeID]*NodeDefinition
}

// NewTemplate builds the id→node index and verifies referential
// integrity: unique node ids, resolvable root, and every child and
// transition target resolving to an existing node or NoNode. The
// returned template must not be mutated.
func NewTemplate(name string, root NodeID, nodes []NodeDefinition, vars []VariableDecl) (*Template, error) {
	t := &Template{
		Name:      name,
		RootNode:  root,
		Nodes:     nodes,
		Variables: vars,
		index:     make(map[NodeID]*NodeDefinition, len(nodes)),
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.ID == NoNode {
			return nil, fmt.Errorf("engine: template %q: node with empty id", name)
		}
		if _, dup := t.index[n.ID]; dup {
			return nil, fmt.Errorf("engine: template %q: duplicate node id %q", name, n.ID)
		}
		t.index[n.ID] = n
	}
	if root == NoNode {
		return nil, fmt.Errorf("engine: template %q: no root node", name)
	}
	if _, ok := t.index[root]; !ok {
		return nil, fmt.Errorf("%w: template %q root %q", ErrNodeNotFound, name, root)
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		for _, c := range n.Children {
			if err := t.checkRef(n.ID, "child", c); err != nil {
				return nil, err
			}
		}
		if err := t.checkRef(n.ID, "success target", n.NextOnSuccess); err != nil {
			return nil, err
		}
		if err := t.checkRef(n.ID, "failure target", n.NextOnFailure); err != nil {
			return nil, err
		}
		if n.Kind == KindDecorator && len(n.Children) != 1 {
			return nil, fmt.Errorf("engine: template %q: decorator %q has %d children, want 1",
				name, n.ID, len(n.Children))
		}
	}
	if err := validateDeclaredVars(t.Variables); err != nil {
		return nil, fmt.Errorf("engine: template %q: %w", name, err)
	}
	return t, nil
}

func validateDeclaredVars(vars []VariableDecl) error {
	seen := make(map[string]bool, len(vars))
	for _, d := range vars {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate variable %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

func (t *Template) checkRef(from NodeID, what string, target NodeID) error {
	if target == NoNode {
		return nil
	}
	if _, ok := t.index[target]; !ok {
		return fmt.Errorf("%w: template %q node %q %s %q",
			ErrNodeNotFound, t.Name, from, what, target)
	}
	return nil
}

// Node resolves a node id through the immutable index.
func (t *Template) Node(id NodeID) (*NodeDefinition, bool) {
	n, ok := t.index[id]
	return n, ok
}

// resolveParams materializes a node's parameter bindings into the map
// handed to the task: literals as-is, variable bindings read live from
// the runner's blackboard.
func resolveParams(n *NodeDefinition, bb *Blackboard) (Params, error) {
	if len(n.Params) == 0 {
		return nil, nil
	}
	params := make(Params, len(n.Params))
	for key, binding := range n.Params {
		if binding.IsVariable() {
			v, err := bb.GetValue(binding.FromVariable)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", key, err)
			}
			params[key] = v
			continue
		}
		if !binding.Literal.IsValid() {
			return nil, fmt.Errorf("param %q: empty binding", key)
		}
		params[key] = binding.Literal
	}
	return params, nil
}
