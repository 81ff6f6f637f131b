package engine

import (
	"fmt"
	"sort"
)

// VariableDecl declares one template variable: a unique name, its type,
// and the default the blackboard resets to. Declarations live in the
// template and are never mutated after load.
type VariableDecl struct {
	Name    string
	Type    ValueType
	Default Value
}

// Validate checks that the default matches the declared type.
func (d VariableDecl) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("engine: variable with empty name")
	}
	if d.Type == TypeInvalid {
		return fmt.Errorf("%w: variable %q", ErrUnknownType, d.Name)
	}
	if d.Default.Type() != d.Type {
		return fmt.Errorf("%w: variable %q declares %s but defaults to %s",
			ErrTypeMismatch, d.Name, d.Type, d.Default.Type())
	}
	return nil
}

type bbEntry struct {
	decl    VariableDecl
	current Value
}

// Blackboard is the typed named-variable store owned by exactly one
// runtime instance. Every stored value's type equals its declared type
// at all times; writes that would violate that are rejected, never
// coerced. A Blackboard is not safe for concurrent use — each runner
// owns its blackboard exclusively.
type Blackboard struct {
	entries map[string]*bbEntry
}

// NewBlackboard returns an empty, uninitialized blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{}
}

// Initialize replaces all state with the template's declarations:
// every declared variable is registered with its type and set to its
// default. Calling Initialize again with a new template discards the
// old schema and values entirely.
func (b *Blackboard) Initialize(tmpl *Template) error {
	if tmpl == nil {
		return fmt.Errorf("engine: initialize with nil template")
	}
	entries := make(map[string]*bbEntry, len(tmpl.Variables))
	for _, d := range tmpl.Variables {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := entries[d.Name]; dup {
			return fmt.Errorf("engine: duplicate variable %q", d.Name)
		}
		entries[d.Name] = &bbEntry{decl: d, current: d.Default}
	}
	b.entries = entries
	return nil
}

// GetValue returns the current value of a declared variable.
func (b *Blackboard) GetValue(name string) (Value, error) {
	if b.entries == nil {
		return Value{}, ErrNotInitialized
	}
	e, ok := b.entries[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return e.current, nil
}

// SetValue stores a value into a declared variable. The write is
// rejected if the name is undeclared or the value's type differs from
// the declared type; on rejection the stored value is unchanged.
func (b *Blackboard) SetValue(name string, v Value) error {
	if b.entries == nil {
		return ErrNotInitialized
	}
	e, ok := b.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	if v.Type() != e.decl.Type {
		return fmt.Errorf("%w: variable %q is %s, got %s",
			ErrTypeMismatch, name, e.decl.Type, v.Type())
	}
	e.current = v
	return nil
}

// Reset restores every variable to its declared default. The set of
// declared names is unaffected.
func (b *Blackboard) Reset() {
	for _, e := range b.entries {
		e.current = e.decl.Default
	}
}

// HasVariable reports whether name was declared.
func (b *Blackboard) HasVariable(name string) bool {
	_, ok := b.entries[name]
	return ok
}

// VariableNames returns all declared names in sorted order.
func (b *Blackboard) VariableNames() []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeclaredType returns the declared type of a variable.
func (b *Blackboard) DeclaredType(name string) (ValueType, error) {
	if b.entries == nil {
		return TypeInvalid, ErrNotInitialized
	}
	e, ok := b.entries[name]
	if !ok {
		return TypeInvalid, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return e.decl.Type, nil
}

// Snapshot returns a copy of every variable's current value, keyed by
// name. Used by observers and debug tooling; mutating the returned map
// does not affect the blackboard.
func (b *Blackboard) Snapshot() map[string]Value {
	snap := make(map[string]Value, len(b.entries))
	for name, e := range b.entries {
		snap[name] = e.current
	}
	return snap
}
