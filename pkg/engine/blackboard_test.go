package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := NewTemplate("test", "start",
		[]NodeDefinition{{
			ID:     "start",
			Kind:   KindAtomicTask,
			TaskID: "LogMessage",
		}},
		[]VariableDecl{
			{Name: "Health", Type: TypeInt, Default: IntValue(100)},
			{Name: "Speed", Type: TypeFloat, Default: FloatValue(1.5)},
			{Name: "Alive", Type: TypeBool, Default: BoolValue(true)},
			{Name: "Home", Type: TypeVector, Default: VectorValue(Vec3{1, 2, 3})},
			{Name: "Leader", Type: TypeEntity, Default: EntityValue(9)},
			{Name: "Name", Type: TypeString, Default: StringValue("grunt")},
		})
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	return tmpl
}

func TestBlackboard_InitializeDefaults(t *testing.T) {
	bb := NewBlackboard()
	if err := bb.Initialize(testTemplate(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	v, err := bb.GetValue("Health")
	if err != nil {
		t.Fatalf("GetValue(Health): %v", err)
	}
	if got, _ := v.AsInt(); got != 100 {
		t.Errorf("Health default = %d, want 100", got)
	}
	v, _ = bb.GetValue("Home")
	if got, _ := v.AsVector(); got != (Vec3{1, 2, 3}) {
		t.Errorf("Home default = %v", got)
	}
}

func TestBlackboard_SetValueTyped(t *testing.T) {
	bb := NewBlackboard()
	if err := bb.Initialize(testTemplate(t)); err != nil {
		t.Fatal(err)
	}

	if err := bb.SetValue("Health", IntValue(55)); err != nil {
		t.Fatalf("type-matched SetValue: %v", err)
	}
	v, _ := bb.GetValue("Health")
	if got, _ := v.AsInt(); got != 55 {
		t.Errorf("Health = %d, want 55", got)
	}

	// Type-mismatched write is rejected and leaves the value unchanged.
	if err := bb.SetValue("Health", FloatValue(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("mismatched SetValue err = %v, want ErrTypeMismatch", err)
	}
	v, _ = bb.GetValue("Health")
	if got, _ := v.AsInt(); got != 55 {
		t.Errorf("Health after rejected write = %d, want 55", got)
	}

	if err := bb.SetValue("Mana", IntValue(1)); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("undeclared SetValue err = %v, want ErrUnknownVariable", err)
	}
	if _, err := bb.GetValue("Mana"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("undeclared GetValue err = %v, want ErrUnknownVariable", err)
	}
}

func TestBlackboard_Reset(t *testing.T) {
	bb := NewBlackboard()
	if err := bb.Initialize(testTemplate(t)); err != nil {
		t.Fatal(err)
	}
	_ = bb.SetValue("Health", IntValue(1))
	_ = bb.SetValue("Alive", BoolValue(false))
	_ = bb.SetValue("Name", StringValue("boss"))

	bb.Reset()

	want := map[string]Value{
		"Health": IntValue(100),
		"Speed":  FloatValue(1.5),
		"Alive":  BoolValue(true),
		"Home":   VectorValue(Vec3{1, 2, 3}),
		"Leader": EntityValue(9),
		"Name":   StringValue("grunt"),
	}
	got := bb.Snapshot()
	if diff := cmp.Diff(want, got, cmp.Comparer(Value.Equal)); diff != "" {
		t.Errorf("snapshot after Reset mismatch (-want +got):\n%s", diff)
	}
}

func TestBlackboard_Introspection(t *testing.T) {
	bb := NewBlackboard()
	if err := bb.Initialize(testTemplate(t)); err != nil {
		t.Fatal(err)
	}
	if !bb.HasVariable("Speed") || bb.HasVariable("Mana") {
		t.Error("HasVariable wrong answers")
	}
	want := []string{"Alive", "Health", "Home", "Leader", "Name", "Speed"}
	if diff := cmp.Diff(want, bb.VariableNames()); diff != "" {
		t.Errorf("VariableNames mismatch (-want +got):\n%s", diff)
	}
	typ, err := bb.DeclaredType("Leader")
	if err != nil || typ != TypeEntity {
		t.Errorf("DeclaredType(Leader) = %s, %v", typ, err)
	}
}

func TestBlackboard_Uninitialized(t *testing.T) {
	bb := NewBlackboard()
	if _, err := bb.GetValue("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetValue on fresh blackboard: %v", err)
	}
	if err := bb.SetValue("x", IntValue(1)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetValue on fresh blackboard: %v", err)
	}
}

func TestBlackboard_ReinitializeDiscardsOldSchema(t *testing.T) {
	bb := NewBlackboard()
	if err := bb.Initialize(testTemplate(t)); err != nil {
		t.Fatal(err)
	}
	other, err := NewTemplate("other", "n",
		[]NodeDefinition{{ID: "n", Kind: KindAtomicTask, TaskID: "Wait"}},
		[]VariableDecl{{Name: "Count", Type: TypeInt, Default: IntValue(0)}})
	if err != nil {
		t.Fatal(err)
	}
	if err := bb.Initialize(other); err != nil {
		t.Fatal(err)
	}
	if bb.HasVariable("Health") {
		t.Error("old schema survived re-Initialize")
	}
	if !bb.HasVariable("Count") {
		t.Error("new schema missing after re-Initialize")
	}
}
