package tasks

import (
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"automaton/pkg/engine"
)

// evalTask evaluates a boolean expression over the blackboard. It fills
// the condition-node role of the old behavior-tree engine: graphs
// branch on arbitrary predicates without a dedicated task per check.
//
// Parameters:
//
//	Expression — string, required; an expr-lang expression whose
//	             environment is every blackboard variable by name.
//
// Success when the expression yields true; Failure on false, a compile
// or runtime error, or a non-boolean result.
type evalTask struct {
	program *vm.Program
	source  string
}

func (e *evalTask) Execute(tc *engine.TaskContext) engine.Status {
	exprVal, err := tc.Params.Require("Expression", engine.TypeString)
	if err != nil {
		tc.Log.Warn("EvaluateExpression: bad Expression parameter", slog.Any("error", err))
		return engine.StatusFailure
	}
	source, _ := exprVal.AsString()
	if tc.Blackboard == nil {
		return engine.StatusFailure
	}

	env := make(map[string]any)
	for name, v := range tc.Blackboard.Snapshot() {
		env[name] = v.Interface()
	}

	if e.program == nil || e.source != source {
		program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
		if err != nil {
			tc.Log.Warn("EvaluateExpression: compile failed",
				slog.String("expression", source), slog.Any("error", err))
			return engine.StatusFailure
		}
		e.program = program
		e.source = source
	}

	out, err := expr.Run(e.program, env)
	if err != nil {
		tc.Log.Warn("EvaluateExpression: evaluation failed",
			slog.String("expression", source), slog.Any("error", err))
		return engine.StatusFailure
	}
	holds, ok := out.(bool)
	if !ok {
		return engine.StatusFailure
	}
	return statusOf(holds)
}

func (e *evalTask) Abort() {}
