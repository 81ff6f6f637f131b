package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"automaton/internal/config"
	"automaton/internal/store"
	"automaton/internal/tasks"
	"automaton/pkg/engine"
)

// fetchDoc walks to a point, settles, then flags completion: the full
// move/wait/write cycle through real built-in tasks.
const fetchDoc = `{
  "schema": 2,
  "name": "fetch",
  "root": "approach",
  "variables": [
    {"name": "Position", "type": "vector", "default": [0, 0, 0]},
    {"name": "Result", "type": "bool", "default": false}
  ],
  "nodes": [
    {"id": "approach", "kind": "task", "task": "MoveToLocation",
     "params": {"Target": {"type": "vector", "value": [5, 0, 0]}},
     "on_success": "settle"},
    {"id": "settle", "kind": "task", "task": "Wait",
     "params": {"Duration": {"type": "float", "value": 0.05}},
     "on_success": "mark"},
    {"id": "mark", "kind": "task", "task": "SetVariable",
     "params": {"VarName": {"type": "string", "value": "Result"},
                "Value": {"type": "bool", "value": true}}}
  ]
}`

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetch.json")
	if err := os.WriteFile(path, []byte(fetchDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fetchScenario(t *testing.T) *config.Scenario {
	t.Helper()
	return &config.Scenario{
		Name: "fetch-test",
		Tick: config.Tick{DT: 0.016, MaxTicks: 600},
		Entities: []config.Entity{
			{ID: 1, Template: writeTemplate(t)},
		},
	}
}

func builtinRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	tasks.RegisterBuiltins(reg)
	return reg
}

func TestWorld_EndToEnd(t *testing.T) {
	w, err := New(fetchScenario(t), builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}

	ticks, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ticks >= 600 {
		t.Fatalf("hit tick limit after %d ticks", ticks)
	}

	r, ok := w.Runner(1)
	if !ok {
		t.Fatal("runner missing")
	}
	if !r.Finished() {
		t.Error("runner not finished")
	}
	if r.LastStatus != engine.StatusSuccess {
		t.Errorf("LastStatus = %v, want Success", r.LastStatus)
	}
	result, err := r.Blackboard.GetValue("Result")
	if err != nil {
		t.Fatal(err)
	}
	if done, _ := result.AsBool(); !done {
		t.Error("Result = false after full run")
	}
	pos, _ := r.Blackboard.GetValue("Position")
	if v, _ := pos.AsVector(); v.X != 5 || v.Y != 0 || v.Z != 0 {
		t.Errorf("Position = %v, want (5,0,0)", v)
	}
}

func TestWorld_VariableOverrides(t *testing.T) {
	sc := fetchScenario(t)
	sc.Entities[0].Variables = map[string]any{
		"Position": []any{4.5, 0, 0},
		"Result":   true,
	}
	w, err := New(sc, builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := w.Runner(1)
	pos, _ := r.Blackboard.GetValue("Position")
	if v, _ := pos.AsVector(); v.X != 4.5 {
		t.Errorf("Position.X = %v, want 4.5", v.X)
	}

	sc2 := fetchScenario(t)
	sc2.Entities[0].Variables = map[string]any{"NoSuchVar": 1}
	if _, err := New(sc2, builtinRegistry()); err == nil {
		t.Error("expected error for unknown override")
	}
}

func TestWorld_SaveRestoreMidRun(t *testing.T) {
	sc := fetchScenario(t)
	w, err := New(sc, builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	// Park mid-flight: past the move, inside the wait.
	for i := 0; i < 6; i++ {
		w.Step(sc.Tick.DT)
	}
	r1, _ := w.Runner(1)
	if r1.Finished() {
		t.Fatal("finished too early for a mid-run save")
	}

	st := store.NewMemStore()
	if err := w.SaveAll(st); err != nil {
		t.Fatal(err)
	}

	w2, err := New(sc, builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if err := w2.RestoreAll(st); err != nil {
		t.Fatal(err)
	}
	r2, ok := w2.Runner(1)
	if !ok {
		t.Fatal("restored runner missing")
	}
	if r2.Current != r1.Current || r2.Elapsed != r1.Elapsed || r2.LastStatus != r1.LastStatus {
		t.Errorf("restored cursor = (%v, %v, %v), want (%v, %v, %v)",
			r2.Current, r2.Elapsed, r2.LastStatus, r1.Current, r1.Elapsed, r1.LastStatus)
	}
	valueEq := cmp.Comparer(engine.Value.Equal)
	if diff := cmp.Diff(r1.Blackboard.Snapshot(), r2.Blackboard.Snapshot(), valueEq); diff != "" {
		t.Errorf("restored blackboard mismatch (-want +got):\n%s", diff)
	}

	// The restored world finishes the job.
	if _, err := w2.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, _ := r2.Blackboard.GetValue("Result")
	if done, _ := result.AsBool(); !done {
		t.Error("Result = false after restored run")
	}
}

func TestWorld_InterruptParks(t *testing.T) {
	w, err := New(fetchScenario(t), builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	w.Step(0.016)
	if !w.Interrupt(1) {
		t.Fatal("Interrupt reported unknown entity")
	}
	// One more tick lets the executor abort the in-flight task.
	w.Step(0.016)

	r, _ := w.Runner(1)
	if !r.Finished() {
		t.Error("runner still live after interrupt")
	}
	if w.Interrupt(99) {
		t.Error("Interrupt(99) = true for unknown entity")
	}
}

func TestWorld_SpawnRejectsDuplicate(t *testing.T) {
	sc := fetchScenario(t)
	w, err := New(sc, builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Spawn(1, sc.Entities[0].Template, nil); err == nil {
		t.Error("expected duplicate-entity error")
	}
	if err := w.Spawn(2, sc.Entities[0].Template, nil); err != nil {
		t.Errorf("fresh spawn failed: %v", err)
	}
	if got := w.Entities(); len(got) != 2 {
		t.Errorf("entities = %v", got)
	}
}

func TestWorld_RunHonoursContext(t *testing.T) {
	w, err := New(fetchScenario(t), builtinRegistry())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}
