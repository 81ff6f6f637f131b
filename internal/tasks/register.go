// Package tasks provides the built-in atomic tasks and the explicit
// startup function that installs them into a registry. There is no
// self-registration through package init side effects: callers wire a
// registry at startup and pass it through the system.
package tasks

import "automaton/pkg/engine"

// Task identities as referenced by graph templates.
const (
	IDWait               = "Wait"
	IDMoveToLocation     = "MoveToLocation"
	IDSetVariable        = "SetVariable"
	IDCompare            = "Compare"
	IDRequestPathfinding = "RequestPathfinding"
	IDLogMessage         = "LogMessage"
	IDEvaluateExpression = "EvaluateExpression"
)

// RegisterBuiltins installs every built-in task factory into reg.
func RegisterBuiltins(reg *engine.Registry) {
	reg.Register(IDWait, func() engine.Task { return &waitTask{} })
	reg.Register(IDMoveToLocation, func() engine.Task { return &moveTask{} })
	reg.Register(IDSetVariable, func() engine.Task { return &setVariableTask{} })
	reg.Register(IDCompare, func() engine.Task { return &compareTask{} })
	reg.Register(IDRequestPathfinding, func() engine.Task { return &pathfindTask{} })
	reg.Register(IDLogMessage, func() engine.Task { return &logMessageTask{} })
	reg.Register(IDEvaluateExpression, func() engine.Task { return &evalTask{} })
}
