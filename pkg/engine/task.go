package engine

import (
	"fmt"
	"log/slog"
)

// Status is the outcome of one Execute call.
type Status uint8

const (
	// StatusRunning means the task needs more ticks. The executor keeps
	// the same instance alive and invokes it again next tick.
	StatusRunning Status = iota
	// StatusSuccess completes the node and takes NextOnSuccess.
	StatusSuccess
	// StatusFailure completes the node and takes NextOnFailure.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Params is the resolved parameter map passed to a task: every binding
// of the node, with variable references already read from the
// blackboard.
type Params map[string]Value

// Get returns a parameter if present.
func (p Params) Get(key string) (Value, bool) {
	v, ok := p[key]
	return v, ok
}

// Require returns a parameter of the given type, or an error naming
// what is missing or mismatched. Tasks use it for their required
// parameters so dispatch diagnostics stay uniform.
func (p Params) Require(key string, typ ValueType) (Value, error) {
	v, ok := p[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrMissingParam, key)
	}
	if v.Type() != typ {
		return Value{}, fmt.Errorf("%w: param %q is %s, want %s",
			ErrTypeMismatch, key, v.Type(), typ)
	}
	return v, nil
}

// PathRequestID identifies one outstanding pathfinding request.
type PathRequestID string

// PathResult is the outcome of a completed pathfinding request.
type PathResult struct {
	Waypoints []Vec3
	Err       error
}

// Pathfinder is the navigation boundary. Execute never blocks on it:
// tasks submit, then poll once per tick, and Cancel detaches from work
// still in flight.
type Pathfinder interface {
	// Request submits an asynchronous path query.
	Request(start, target Vec3) (PathRequestID, error)
	// Poll reports whether the request finished; once it returns true
	// the request id is spent.
	Poll(id PathRequestID) (PathResult, bool)
	// Cancel drops an outstanding request. Late results are discarded.
	Cancel(id PathRequestID)
}

// TaskContext carries everything a task may touch during one Execute
// call. The executor owns elapsed-time tracking; tasks read Elapsed
// rather than accumulating their own timers.
type TaskContext struct {
	Params     Params
	Blackboard *Blackboard
	Entity     EntityRef

	// Elapsed is the time in seconds the runner's cursor has spent on
	// the current node, including this tick's delta.
	Elapsed float64
	// Delta is this tick's timestep in seconds.
	Delta float64

	Nav Pathfinder
	Log *slog.Logger
}

// Task is a single pluggable unit of work resolved through the
// registry. Execute must not block: multi-tick work returns
// StatusRunning and is re-invoked on the same instance next tick, so
// internal progress state survives. Abort is called at most once, may
// happen before the first Execute, and releases any in-progress
// resource with no further side effects.
type Task interface {
	Execute(tc *TaskContext) Status
	Abort()
}

// TaskFactory produces a fresh task instance.
type TaskFactory func() Task
