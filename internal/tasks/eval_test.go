package tasks

import (
	"testing"

	"automaton/pkg/engine"
)

func TestEvaluateExpression_OverBlackboard(t *testing.T) {
	task := &evalTask{}
	tc := testContext(t, engine.Params{
		"Expression": engine.StringValue("Health > 50 && !Result"),
	})
	if got := task.Execute(tc); got != engine.StatusSuccess {
		t.Errorf("%s, want success (Health=100, Result=false)", got)
	}

	_ = tc.Blackboard.SetValue("Health", engine.IntValue(10))
	task2 := &evalTask{}
	if got := task2.Execute(tc); got != engine.StatusFailure {
		t.Errorf("%s, want failure after Health drop", got)
	}
}

func TestEvaluateExpression_ReevaluatesLiveState(t *testing.T) {
	// The same instance re-executed sees updated variables: the program
	// is cached, the environment is not.
	task := &evalTask{}
	tc := testContext(t, engine.Params{
		"Expression": engine.StringValue("Health == 100"),
	})
	if got := task.Execute(tc); got != engine.StatusSuccess {
		t.Fatalf("%s, want success", got)
	}
	_ = tc.Blackboard.SetValue("Health", engine.IntValue(99))
	if got := task.Execute(tc); got != engine.StatusFailure {
		t.Errorf("%s, want failure on live value", got)
	}
}

func TestEvaluateExpression_Failures(t *testing.T) {
	cases := []struct {
		name   string
		params engine.Params
	}{
		{"missing", engine.Params{}},
		{"wrong type", engine.Params{"Expression": engine.IntValue(1)}},
		{"syntax error", engine.Params{"Expression": engine.StringValue("Health >")}},
		{"unknown identifier", engine.Params{"Expression": engine.StringValue("Mana > 0")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			task := &evalTask{}
			if got := task.Execute(testContext(t, c.params)); got != engine.StatusFailure {
				t.Errorf("%s, want failure", got)
			}
		})
	}
}
