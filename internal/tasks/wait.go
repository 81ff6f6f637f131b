package tasks

import (
	"log/slog"

	"automaton/pkg/engine"
)

// waitTask holds its node for a fixed duration. The executor owns the
// elapsed timer; the task only compares it against the Duration
// parameter, so the instance itself is stateless across ticks.
//
// Parameters:
//
//	Duration — seconds, float, required, must be > 0.
type waitTask struct{}

func (w *waitTask) Execute(tc *engine.TaskContext) engine.Status {
	dur, err := tc.Params.Require("Duration", engine.TypeFloat)
	if err != nil {
		tc.Log.Warn("Wait: bad Duration parameter", slog.Any("error", err))
		return engine.StatusFailure
	}
	seconds, _ := dur.AsFloat()
	if seconds <= 0 {
		tc.Log.Warn("Wait: Duration must be positive", slog.Float64("duration", float64(seconds)))
		return engine.StatusFailure
	}
	if tc.Elapsed < float64(seconds) {
		return engine.StatusRunning
	}
	return engine.StatusSuccess
}

func (w *waitTask) Abort() {}
