// Package loader ingests task-graph template documents (JSON schema v2
// and v3, or the same shape in YAML) and produces validated
// engine.Templates. Schema v2 is the flat form: every node is an atomic
// task with explicit success/failure transitions. Schema v3 additionally
// allows composite nodes (selector, sequence, parallel, decorator),
// which the loader compiles into the flat transition pointers the
// executor walks — composites never reach runtime.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"automaton/pkg/engine"
)

// Supported schema versions.
const (
	SchemaV2 = 2
	SchemaV3 = 3
)

// noneSentinel is the explicit "no node" spelling in documents; absent
// fields mean the same thing.
const noneSentinel = "none"

type document struct {
	Schema    int           `json:"schema" yaml:"schema"`
	Name      string        `json:"name" yaml:"name"`
	Root      string        `json:"root" yaml:"root"`
	Variables []variableDoc `json:"variables" yaml:"variables"`
	Nodes     []nodeDoc     `json:"nodes" yaml:"nodes"`
}

type variableDoc struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Default any    `json:"default" yaml:"default"`
}

type nodeDoc struct {
	ID        string              `json:"id" yaml:"id"`
	Kind      string              `json:"kind" yaml:"kind"`
	Children  []string            `json:"children" yaml:"children"`
	Repeat    int                 `json:"repeat" yaml:"repeat"`
	Task      string              `json:"task" yaml:"task"`
	Params    map[string]paramDoc `json:"params" yaml:"params"`
	OnSuccess string              `json:"on_success" yaml:"on_success"`
	OnFailure string              `json:"on_failure" yaml:"on_failure"`
}

// paramDoc is one parameter binding: either a variable reference or a
// typed literal.
type paramDoc struct {
	Var   string `json:"var" yaml:"var"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

// LoadFile reads and parses a template document, picking the format
// from the file extension (.json, .yaml, .yml).
func LoadFile(path string) (*engine.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a JSON template document.
func ParseJSON(data []byte) (*engine.Template, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: parse json: %w", err)
	}
	return build(&doc)
}

// ParseYAML parses a YAML template document.
func ParseYAML(data []byte) (*engine.Template, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: parse yaml: %w", err)
	}
	return build(&doc)
}

func build(doc *document) (*engine.Template, error) {
	switch doc.Schema {
	case SchemaV2, SchemaV3:
	default:
		return nil, fmt.Errorf("loader: unsupported schema version %d", doc.Schema)
	}
	if doc.Root == "" || doc.Root == noneSentinel {
		return nil, fmt.Errorf("loader: template %q has no root node", doc.Name)
	}

	vars := make([]engine.VariableDecl, 0, len(doc.Variables))
	for _, v := range doc.Variables {
		decl, err := buildVariable(v)
		if err != nil {
			return nil, err
		}
		vars = append(vars, decl)
	}

	nodes := make([]engine.NodeDefinition, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		node, err := buildNode(doc, n)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	nodes, root, err := compile(doc.Name, engine.NodeID(doc.Root), nodes)
	if err != nil {
		return nil, err
	}
	return engine.NewTemplate(doc.Name, root, nodes, vars)
}

func buildVariable(v variableDoc) (engine.VariableDecl, error) {
	typ, err := engine.ParseValueType(v.Type)
	if err != nil {
		return engine.VariableDecl{}, fmt.Errorf("loader: variable %q: %w", v.Name, err)
	}
	def, err := coerceValue(typ, v.Default)
	if err != nil {
		return engine.VariableDecl{}, fmt.Errorf("loader: variable %q default: %w", v.Name, err)
	}
	return engine.VariableDecl{Name: v.Name, Type: typ, Default: def}, nil
}

func buildNode(doc *document, n nodeDoc) (engine.NodeDefinition, error) {
	kind, err := engine.ParseNodeKind(n.Kind)
	if err != nil {
		return engine.NodeDefinition{}, fmt.Errorf("loader: node %q: %w", n.ID, err)
	}
	if kind != engine.KindAtomicTask && doc.Schema < SchemaV3 {
		return engine.NodeDefinition{}, fmt.Errorf("loader: node %q: kind %s requires schema v3", n.ID, kind)
	}
	if kind == engine.KindAtomicTask && n.Task == "" {
		return engine.NodeDefinition{}, fmt.Errorf("loader: node %q: task node without task identity", n.ID)
	}

	node := engine.NodeDefinition{
		ID:            engine.NodeID(n.ID),
		Kind:          kind,
		RepeatCount:   n.Repeat,
		TaskID:        n.Task,
		NextOnSuccess: nodeRef(n.OnSuccess),
		NextOnFailure: nodeRef(n.OnFailure),
	}
	for _, c := range n.Children {
		node.Children = append(node.Children, engine.NodeID(c))
	}
	if len(n.Params) > 0 {
		node.Params = make(map[string]engine.ParamBinding, len(n.Params))
		for key, p := range n.Params {
			binding, err := buildParam(p)
			if err != nil {
				return engine.NodeDefinition{}, fmt.Errorf("loader: node %q param %q: %w", n.ID, key, err)
			}
			node.Params[key] = binding
		}
	}
	return node, nil
}

func buildParam(p paramDoc) (engine.ParamBinding, error) {
	if p.Var != "" {
		if p.Type != "" || p.Value != nil {
			return engine.ParamBinding{}, fmt.Errorf("binding is both a variable reference and a literal")
		}
		return engine.VariableBinding(p.Var), nil
	}
	typ, err := engine.ParseValueType(p.Type)
	if err != nil {
		return engine.ParamBinding{}, err
	}
	v, err := coerceValue(typ, p.Value)
	if err != nil {
		return engine.ParamBinding{}, err
	}
	return engine.LiteralBinding(v), nil
}

func nodeRef(s string) engine.NodeID {
	if s == "" || s == noneSentinel {
		return engine.NoNode
	}
	return engine.NodeID(s)
}

// CoerceValue turns a decoded JSON/YAML scalar into a typed engine
// value. JSON numbers arrive as float64; YAML numbers as int or
// float64. Anything else is a document error. Scenario files reuse it
// for variable overrides, which carry the same plain-document
// representations as template defaults.
func CoerceValue(typ engine.ValueType, raw any) (engine.Value, error) {
	return coerceValue(typ, raw)
}

func coerceValue(typ engine.ValueType, raw any) (engine.Value, error) {
	switch typ {
	case engine.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return engine.Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return engine.BoolValue(b), nil
	case engine.TypeInt:
		n, ok := asInt64(raw)
		if !ok {
			return engine.Value{}, fmt.Errorf("expected integer, got %T", raw)
		}
		return engine.IntValue(int32(n)), nil
	case engine.TypeFloat:
		f, ok := asFloat64(raw)
		if !ok {
			return engine.Value{}, fmt.Errorf("expected number, got %T", raw)
		}
		return engine.FloatValue(float32(f)), nil
	case engine.TypeVector:
		list, ok := raw.([]any)
		if !ok || len(list) != 3 {
			return engine.Value{}, fmt.Errorf("expected [x, y, z], got %T", raw)
		}
		var c [3]float32
		for i, item := range list {
			f, ok := asFloat64(item)
			if !ok {
				return engine.Value{}, fmt.Errorf("vector component %d: got %T", i, item)
			}
			c[i] = float32(f)
		}
		return engine.VectorValue(engine.Vec3{X: c[0], Y: c[1], Z: c[2]}), nil
	case engine.TypeEntity:
		n, ok := asInt64(raw)
		if !ok || n < 0 {
			return engine.Value{}, fmt.Errorf("expected entity id, got %v", raw)
		}
		return engine.EntityValue(engine.EntityRef(n)), nil
	case engine.TypeString:
		s, ok := raw.(string)
		if !ok {
			return engine.Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return engine.StringValue(s), nil
	default:
		return engine.Value{}, fmt.Errorf("unsupported type %s", typ)
	}
}

func asInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
