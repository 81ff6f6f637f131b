package tasks

import (
	"log/slog"

	"automaton/pkg/engine"
)

// setVariableTask writes a value into a named blackboard variable.
//
// Parameters:
//
//	VarName — string, required, the target variable name.
//	Value   — any type, required, must match the declared type.
//
// Failure on missing parameters, unknown variable, type mismatch, or a
// nil blackboard; the blackboard enforces the type invariant, this task
// just reports the outcome.
type setVariableTask struct{}

func (s *setVariableTask) Execute(tc *engine.TaskContext) engine.Status {
	nameVal, err := tc.Params.Require("VarName", engine.TypeString)
	if err != nil {
		tc.Log.Warn("SetVariable: bad VarName parameter", slog.Any("error", err))
		return engine.StatusFailure
	}
	name, _ := nameVal.AsString()

	value, ok := tc.Params.Get("Value")
	if !ok || !value.IsValid() {
		tc.Log.Warn("SetVariable: missing Value parameter", slog.String("var", name))
		return engine.StatusFailure
	}
	if tc.Blackboard == nil {
		tc.Log.Warn("SetVariable: no blackboard", slog.String("var", name))
		return engine.StatusFailure
	}
	if err := tc.Blackboard.SetValue(name, value); err != nil {
		tc.Log.Warn("SetVariable: write rejected",
			slog.String("var", name), slog.Any("error", err))
		return engine.StatusFailure
	}
	return engine.StatusSuccess
}

func (s *setVariableTask) Abort() {}
