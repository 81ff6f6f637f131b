package tasks

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"automaton/pkg/engine"
)

var errNoPath = errors.New("no path to target")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testContext builds a TaskContext over a blackboard declaring the
// variables most built-ins touch.
func testContext(t *testing.T, params engine.Params) *engine.TaskContext {
	t.Helper()
	tmpl, err := engine.NewTemplate("tasks-test", "n",
		[]engine.NodeDefinition{{ID: "n", Kind: engine.KindAtomicTask, TaskID: IDLogMessage}},
		[]engine.VariableDecl{
			{Name: PositionVar, Type: engine.TypeVector, Default: engine.VectorValue(engine.Vec3{})},
			{Name: PathVar, Type: engine.TypeString, Default: engine.StringValue("")},
			{Name: "Result", Type: engine.TypeBool, Default: engine.BoolValue(false)},
			{Name: "Health", Type: engine.TypeInt, Default: engine.IntValue(100)},
		})
	if err != nil {
		t.Fatal(err)
	}
	bb := engine.NewBlackboard()
	if err := bb.Initialize(tmpl); err != nil {
		t.Fatal(err)
	}
	return &engine.TaskContext{
		Params:     params,
		Blackboard: bb,
		Entity:     1,
		Delta:      0.016,
		Log:        discardLogger(),
	}
}

// fakeNav is a hand-cranked Pathfinder: requests complete only when the
// test says so.
type fakeNav struct {
	nextID    engine.PathRequestID
	requested []engine.PathRequestID
	cancelled []engine.PathRequestID
	results   map[engine.PathRequestID]engine.PathResult
	submitErr error
}

func newFakeNav() *fakeNav {
	return &fakeNav{nextID: "req-1", results: map[engine.PathRequestID]engine.PathResult{}}
}

func (f *fakeNav) Request(start, target engine.Vec3) (engine.PathRequestID, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	id := f.nextID
	f.requested = append(f.requested, id)
	return id, nil
}

func (f *fakeNav) Poll(id engine.PathRequestID) (engine.PathResult, bool) {
	r, ok := f.results[id]
	return r, ok
}

func (f *fakeNav) Cancel(id engine.PathRequestID) {
	f.cancelled = append(f.cancelled, id)
}
