package tasks

import (
	"testing"

	"automaton/pkg/engine"
)

func TestWait_RunsUntilDuration(t *testing.T) {
	task := &waitTask{}
	tc := testContext(t, engine.Params{"Duration": engine.FloatValue(0.05)})

	tc.Elapsed = 0.016
	if got := task.Execute(tc); got != engine.StatusRunning {
		t.Errorf("elapsed 0.016: %s, want running", got)
	}
	tc.Elapsed = 0.048
	if got := task.Execute(tc); got != engine.StatusRunning {
		t.Errorf("elapsed 0.048: %s, want running", got)
	}
	tc.Elapsed = 0.064
	if got := task.Execute(tc); got != engine.StatusSuccess {
		t.Errorf("elapsed 0.064: %s, want success", got)
	}
}

func TestWait_InvalidDuration(t *testing.T) {
	task := &waitTask{}
	cases := []struct {
		name   string
		params engine.Params
	}{
		{"missing", engine.Params{}},
		{"zero", engine.Params{"Duration": engine.FloatValue(0)}},
		{"negative", engine.Params{"Duration": engine.FloatValue(-1)}},
		{"wrong type", engine.Params{"Duration": engine.IntValue(5)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := task.Execute(testContext(t, c.params)); got != engine.StatusFailure {
				t.Errorf("%s, want failure", got)
			}
		})
	}
}
