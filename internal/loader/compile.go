package loader

import (
	"fmt"
	"log/slog"

	"automaton/pkg/engine"
)

// compile lowers a document's node set to the flat pointer-walk form
// the executor runs. Two modes, picked by the root node's kind:
//
//   - atomic root: the document is already flat (schema v2, or v3
//     authored flat); nodes pass through with their explicit
//     transitions.
//   - composite root: the tree under the root is compiled away. Leaves
//     are cloned per occurrence and their NextOnSuccess/NextOnFailure
//     pointers derived from composite semantics; the composite nodes
//     themselves never appear in the output.
//
// Compilation rules: a sequence chains children through NextOnSuccess
// and fails as a whole on any child failure; a selector chains through
// NextOnFailure and succeeds on the first child success; a decorator
// with a repeat count unrolls its child that many times; parallel has
// no flat equivalent and is compiled as a sequence with a warning.
func compile(name string, root engine.NodeID, nodes []engine.NodeDefinition) ([]engine.NodeDefinition, engine.NodeID, error) {
	index := make(map[engine.NodeID]*engine.NodeDefinition, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if _, dup := index[n.ID]; dup {
			return nil, engine.NoNode, fmt.Errorf("loader: template %q: duplicate node id %q", name, n.ID)
		}
		index[n.ID] = n
	}
	rootNode, ok := index[root]
	if !ok {
		return nil, engine.NoNode, fmt.Errorf("loader: template %q: root %q not defined", name, root)
	}

	if rootNode.Kind == engine.KindAtomicTask {
		return nodes, root, nil
	}

	c := &compiler{
		name:  name,
		index: index,
		used:  make(map[engine.NodeID]int),
		log:   slog.Default().With(slog.String("component", "loader")),
	}
	entry, err := c.lower(root, engine.NoNode, engine.NoNode)
	if err != nil {
		return nil, engine.NoNode, err
	}
	return c.out, entry, nil
}

type compiler struct {
	name  string
	index map[engine.NodeID]*engine.NodeDefinition
	out   []engine.NodeDefinition
	used  map[engine.NodeID]int
	log   *slog.Logger
}

// lower emits the flat form of the subtree rooted at id, wiring its
// exits to onSuccess/onFailure. Returns the entry node of the emitted
// chain.
func (c *compiler) lower(id engine.NodeID, onSuccess, onFailure engine.NodeID) (engine.NodeID, error) {
	src, ok := c.index[id]
	if !ok {
		return engine.NoNode, fmt.Errorf("loader: template %q: node %q not defined", c.name, id)
	}

	switch src.Kind {
	case engine.KindAtomicTask:
		clone := *src
		clone.ID = c.freshID(src.ID)
		clone.Children = nil
		clone.NextOnSuccess = onSuccess
		clone.NextOnFailure = onFailure
		c.out = append(c.out, clone)
		return clone.ID, nil

	case engine.KindSequence, engine.KindParallel:
		if src.Kind == engine.KindParallel {
			// The flat executor runs one leaf at a time; true parallel
			// child semantics cannot be expressed in two pointers.
			c.log.Warn("parallel node compiled as sequence",
				slog.String("template", c.name), slog.String("node", string(id)))
		}
		if len(src.Children) == 0 {
			return engine.NoNode, fmt.Errorf("loader: template %q: %s %q has no children", c.name, src.Kind, id)
		}
		entry := onSuccess
		for i := len(src.Children) - 1; i >= 0; i-- {
			var err error
			entry, err = c.lower(src.Children[i], entry, onFailure)
			if err != nil {
				return engine.NoNode, err
			}
		}
		return entry, nil

	case engine.KindSelector:
		if len(src.Children) == 0 {
			return engine.NoNode, fmt.Errorf("loader: template %q: selector %q has no children", c.name, id)
		}
		entry := onFailure
		for i := len(src.Children) - 1; i >= 0; i-- {
			var err error
			entry, err = c.lower(src.Children[i], onSuccess, entry)
			if err != nil {
				return engine.NoNode, err
			}
		}
		return entry, nil

	case engine.KindDecorator:
		if len(src.Children) != 1 {
			return engine.NoNode, fmt.Errorf("loader: template %q: decorator %q needs exactly one child", c.name, id)
		}
		repeats := src.RepeatCount
		if repeats < 1 {
			repeats = 1
		}
		entry := onSuccess
		for i := 0; i < repeats; i++ {
			var err error
			entry, err = c.lower(src.Children[0], entry, onFailure)
			if err != nil {
				return engine.NoNode, err
			}
		}
		return entry, nil

	default:
		return engine.NoNode, fmt.Errorf("loader: template %q: node %q has invalid kind", c.name, id)
	}
}

// freshID keeps the authored id for the first occurrence of a leaf and
// suffixes subsequent clones, so compiled graphs stay readable in the
// debugger.
func (c *compiler) freshID(id engine.NodeID) engine.NodeID {
	c.used[id]++
	if c.used[id] == 1 {
		return id
	}
	return engine.NodeID(fmt.Sprintf("%s#%d", id, c.used[id]))
}
