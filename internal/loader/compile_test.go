package loader

import (
	"strings"
	"testing"

	"automaton/pkg/engine"
)

// walk follows success transitions from the root, returning task ids in
// order. Compiled graphs are linear enough for this to characterize
// them.
func walkSuccess(t *testing.T, tmpl *engine.Template) []string {
	t.Helper()
	var tasks []string
	cur := tmpl.RootNode
	for cur != engine.NoNode {
		n, ok := tmpl.Node(cur)
		if !ok {
			t.Fatalf("dangling cursor %q", cur)
		}
		if n.Kind != engine.KindAtomicTask {
			t.Fatalf("composite %q survived compilation", n.ID)
		}
		tasks = append(tasks, n.TaskID)
		cur = n.NextOnSuccess
		if len(tasks) > 64 {
			t.Fatal("success chain does not terminate")
		}
	}
	return tasks
}

func TestCompile_SequenceChainsOnSuccess(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "seq", "root": "all",
	  "nodes": [
	    {"id": "all", "kind": "sequence", "children": ["a", "b", "c"]},
	    {"id": "a", "kind": "task", "task": "TaskA"},
	    {"id": "b", "kind": "task", "task": "TaskB"},
	    {"id": "c", "kind": "task", "task": "TaskC"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	got := walkSuccess(t, tmpl)
	want := []string{"TaskA", "TaskB", "TaskC"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("success chain = %v, want %v", got, want)
	}
	// Any child failing fails the whole sequence.
	root, _ := tmpl.Node(tmpl.RootNode)
	if root.NextOnFailure != engine.NoNode {
		t.Errorf("first child failure target = %q, want terminal", root.NextOnFailure)
	}
}

func TestCompile_SelectorChainsOnFailure(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "sel", "root": "any",
	  "nodes": [
	    {"id": "any", "kind": "selector", "children": ["a", "b"]},
	    {"id": "a", "kind": "task", "task": "TaskA"},
	    {"id": "b", "kind": "task", "task": "TaskB"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	first, ok := tmpl.Node(tmpl.RootNode)
	if !ok || first.TaskID != "TaskA" {
		t.Fatalf("root = %+v", first)
	}
	// First success ends the selector; first failure falls through to b.
	if first.NextOnSuccess != engine.NoNode {
		t.Errorf("a success target = %q, want terminal", first.NextOnSuccess)
	}
	second, ok := tmpl.Node(first.NextOnFailure)
	if !ok || second.TaskID != "TaskB" {
		t.Fatalf("a failure target = %+v", second)
	}
	if second.NextOnSuccess != engine.NoNode || second.NextOnFailure != engine.NoNode {
		t.Errorf("last alternative must terminate both ways: %+v", second)
	}
}

func TestCompile_DecoratorUnrollsRepeat(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "rep", "root": "thrice",
	  "nodes": [
	    {"id": "thrice", "kind": "decorator", "repeat": 3, "children": ["step"]},
	    {"id": "step", "kind": "task", "task": "Step"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	got := walkSuccess(t, tmpl)
	if len(got) != 3 {
		t.Fatalf("unrolled chain = %v, want 3 occurrences", got)
	}
	if len(tmpl.Nodes) != 3 {
		t.Errorf("node count = %d, want 3 clones", len(tmpl.Nodes))
	}
}

func TestCompile_NestedComposites(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "nest", "root": "plan",
	  "nodes": [
	    {"id": "plan", "kind": "sequence", "children": ["try", "after"]},
	    {"id": "try", "kind": "selector", "children": ["primary", "fallback"]},
	    {"id": "primary", "kind": "task", "task": "Primary"},
	    {"id": "fallback", "kind": "task", "task": "Fallback"},
	    {"id": "after", "kind": "task", "task": "After"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	primary, _ := tmpl.Node(tmpl.RootNode)
	if primary.TaskID != "Primary" {
		t.Fatalf("entry = %+v", primary)
	}
	after, ok := tmpl.Node(primary.NextOnSuccess)
	if !ok || after.TaskID != "After" {
		t.Fatalf("primary success = %+v", after)
	}
	fallback, ok := tmpl.Node(primary.NextOnFailure)
	if !ok || fallback.TaskID != "Fallback" {
		t.Fatalf("primary failure = %+v", fallback)
	}
	if fb, _ := tmpl.Node(fallback.NextOnSuccess); fb == nil || fb.TaskID != "After" {
		t.Errorf("fallback success should rejoin the sequence")
	}
}

func TestCompile_ParallelBecomesSequence(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "par", "root": "both",
	  "nodes": [
	    {"id": "both", "kind": "parallel", "children": ["a", "b"]},
	    {"id": "a", "kind": "task", "task": "TaskA"},
	    {"id": "b", "kind": "task", "task": "TaskB"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	got := walkSuccess(t, tmpl)
	if strings.Join(got, ",") != "TaskA,TaskB" {
		t.Errorf("chain = %v", got)
	}
}

func TestCompile_SharedLeafCloned(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "shared", "root": "plan",
	  "nodes": [
	    {"id": "plan", "kind": "sequence", "children": ["ping", "ping"]},
	    {"id": "ping", "kind": "task", "task": "Ping"}
	  ]
	}`
	tmpl, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(tmpl.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2 distinct clones", len(tmpl.Nodes))
	}
	got := walkSuccess(t, tmpl)
	if len(got) != 2 {
		t.Errorf("chain = %v", got)
	}
}

func TestCompile_EmptyCompositeRejected(t *testing.T) {
	doc := `{
	  "schema": 3, "name": "bad", "root": "s",
	  "nodes": [{"id": "s", "kind": "sequence"}]
	}`
	if _, err := ParseJSON([]byte(doc)); err == nil || !strings.Contains(err.Error(), "no children") {
		t.Errorf("err = %v, want no-children rejection", err)
	}
}
