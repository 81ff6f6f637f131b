package tasks

import (
	"log/slog"

	"automaton/pkg/engine"
)

// logMessageTask writes a message to the log sink and always succeeds.
// The trivial instantaneous-task case: no state, no Running, no abort
// work.
//
// Parameters:
//
//	message — string, optional; a placeholder is logged when absent.
type logMessageTask struct{}

func (l *logMessageTask) Execute(tc *engine.TaskContext) engine.Status {
	msg := "(no message)"
	if v, ok := tc.Params.Get("message"); ok {
		if s, err := v.AsString(); err == nil {
			msg = s
		}
	}
	tc.Log.Info("LogMessage", slog.Uint64("entity", uint64(tc.Entity)), slog.String("message", msg))
	return engine.StatusSuccess
}

func (l *logMessageTask) Abort() {}
