// Package engine implements the atomic task system: a data-driven,
// per-entity task-graph interpreter. An immutable Template describes a
// network of nodes plus typed variable declarations; any number of
// Runners (one per entity) execute against a shared template, each
// advanced one step per simulation tick by the Executor. Atomic tasks
// are resolved by string identity through a Registry and may span
// multiple ticks by returning StatusRunning.
package engine

import (
	"fmt"
	"math"
)

// ValueType tags the active variant of a Value.
type ValueType uint8

const (
	TypeInvalid ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeVector
	TypeEntity
	TypeString
)

// String returns the canonical lowercase name used in templates and logs.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeVector:
		return "vector"
	case TypeEntity:
		return "entity"
	case TypeString:
		return "string"
	default:
		return "invalid"
	}
}

// ParseValueType maps a template type name to its ValueType.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "bool":
		return TypeBool, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "vector":
		return TypeVector, nil
	case "entity":
		return TypeEntity, nil
	case "string":
		return TypeString, nil
	default:
		return TypeInvalid, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Vec3 is a 3D position or direction. Components are float32 to match
// the 4-byte IEEE layout of the persistence format.
type Vec3 struct {
	X, Y, Z float32
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z)))
}

// EntityRef identifies a game entity. Zero is a valid (if unusual) id;
// the reference carries no liveness guarantee.
type EntityRef uint64

// Value is a closed tagged union over the six variable types. A Value is
// immutable once constructed; assignment replaces the whole value
// including its type tag. Accessing the wrong variant is a programming
// error and fails with ErrTypeMismatch rather than coercing.
type Value struct {
	typ ValueType
	b   bool
	i   int32
	f   float32
	v   Vec3
	e   EntityRef
	s   string
}

// BoolValue constructs a bool Value.
func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }

// IntValue constructs an int Value.
func IntValue(i int32) Value { return Value{typ: TypeInt, i: i} }

// FloatValue constructs a float Value.
func FloatValue(f float32) Value { return Value{typ: TypeFloat, f: f} }

// VectorValue constructs a vector Value.
func VectorValue(v Vec3) Value { return Value{typ: TypeVector, v: v} }

// EntityValue constructs an entity-reference Value.
func EntityValue(e EntityRef) Value { return Value{typ: TypeEntity, e: e} }

// StringValue constructs a string Value.
func StringValue(s string) Value { return Value{typ: TypeString, s: s} }

// Type returns the active variant's type tag.
func (v Value) Type() ValueType { return v.typ }

// IsValid reports whether the value holds any variant at all.
func (v Value) IsValid() bool { return v.typ != TypeInvalid }

func (v Value) variantErr(want ValueType) error {
	return fmt.Errorf("%w: value is %s, accessed as %s", ErrTypeMismatch, v.typ, want)
}

// AsBool returns the bool variant.
func (v Value) AsBool() (bool, error) {
	if v.typ != TypeBool {
		return false, v.variantErr(TypeBool)
	}
	return v.b, nil
}

// AsInt returns the int variant.
func (v Value) AsInt() (int32, error) {
	if v.typ != TypeInt {
		return 0, v.variantErr(TypeInt)
	}
	return v.i, nil
}

// AsFloat returns the float variant.
func (v Value) AsFloat() (float32, error) {
	if v.typ != TypeFloat {
		return 0, v.variantErr(TypeFloat)
	}
	return v.f, nil
}

// AsVector returns the vector variant.
func (v Value) AsVector() (Vec3, error) {
	if v.typ != TypeVector {
		return Vec3{}, v.variantErr(TypeVector)
	}
	return v.v, nil
}

// AsEntity returns the entity-reference variant.
func (v Value) AsEntity() (EntityRef, error) {
	if v.typ != TypeEntity {
		return 0, v.variantErr(TypeEntity)
	}
	return v.e, nil
}

// AsString returns the string variant.
func (v Value) AsString() (string, error) {
	if v.typ != TypeString {
		return "", v.variantErr(TypeString)
	}
	return v.s, nil
}

// Interface returns the variant as a plain Go value. Used by tooling
// (expression environments, JSON snapshots); the core never round-trips
// through it.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBool:
		return v.b
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeVector:
		return v.v
	case TypeEntity:
		return uint64(v.e)
	case TypeString:
		return v.s
	default:
		return nil
	}
}

// String renders the value for logs and diagnostics.
func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return fmt.Sprintf("bool(%t)", v.b)
	case TypeInt:
		return fmt.Sprintf("int(%d)", v.i)
	case TypeFloat:
		return fmt.Sprintf("float(%g)", v.f)
	case TypeVector:
		return fmt.Sprintf("vector(%g, %g, %g)", v.v.X, v.v.Y, v.v.Z)
	case TypeEntity:
		return fmt.Sprintf("entity(%d)", v.e)
	case TypeString:
		return fmt.Sprintf("string(%q)", v.s)
	default:
		return "invalid"
	}
}

// Equal reports deep equality of type tag and payload. Used by tests and
// the SetVariable/Compare tasks; not an ordering.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.b == o.b
	case TypeInt:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f
	case TypeVector:
		return v.v == o.v
	case TypeEntity:
		return v.e == o.e
	case TypeString:
		return v.s == o.s
	default:
		return true
	}
}
