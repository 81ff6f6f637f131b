package tasks

import (
	"log/slog"

	"automaton/pkg/engine"
)

// compareTask evaluates a comparison between two parameters.
//
// Parameters:
//
//	LHS, RHS — required, same type.
//	Operator — string, one of == != < > <= >=; ordering operators are
//	           valid only for int and float operands.
//
// Success when the comparison holds; Failure otherwise or on an invalid
// operator/type combination.
type compareTask struct{}

func (c *compareTask) Execute(tc *engine.TaskContext) engine.Status {
	lhs, lok := tc.Params.Get("LHS")
	rhs, rok := tc.Params.Get("RHS")
	opVal, err := tc.Params.Require("Operator", engine.TypeString)
	if !lok || !rok || err != nil {
		tc.Log.Warn("Compare: missing parameters", slog.Any("error", err))
		return engine.StatusFailure
	}
	op, _ := opVal.AsString()

	if lhs.Type() != rhs.Type() {
		tc.Log.Warn("Compare: operand type mismatch",
			slog.String("lhs", lhs.Type().String()),
			slog.String("rhs", rhs.Type().String()))
		return engine.StatusFailure
	}

	switch op {
	case "==":
		return statusOf(lhs.Equal(rhs))
	case "!=":
		return statusOf(!lhs.Equal(rhs))
	case "<", ">", "<=", ">=":
		holds, ok := ordered(lhs, rhs, op)
		if !ok {
			tc.Log.Warn("Compare: ordering requires numeric operands",
				slog.String("type", lhs.Type().String()), slog.String("op", op))
			return engine.StatusFailure
		}
		return statusOf(holds)
	default:
		tc.Log.Warn("Compare: unknown operator", slog.String("op", op))
		return engine.StatusFailure
	}
}

func (c *compareTask) Abort() {}

func statusOf(b bool) engine.Status {
	if b {
		return engine.StatusSuccess
	}
	return engine.StatusFailure
}

// ordered evaluates an ordering operator over numeric operands of the
// same type. Returns ok=false for non-numeric types.
func ordered(lhs, rhs engine.Value, op string) (holds, ok bool) {
	var l, r float64
	switch lhs.Type() {
	case engine.TypeInt:
		li, _ := lhs.AsInt()
		ri, _ := rhs.AsInt()
		l, r = float64(li), float64(ri)
	case engine.TypeFloat:
		lf, _ := lhs.AsFloat()
		rf, _ := rhs.AsFloat()
		l, r = float64(lf), float64(rf)
	default:
		return false, false
	}
	switch op {
	case "<":
		return l < r, true
	case ">":
		return l > r, true
	case "<=":
		return l <= r, true
	case ">=":
		return l >= r, true
	default:
		return false, false
	}
}
