package tasks

import (
	"encoding/json"
	"log/slog"

	"automaton/pkg/engine"
)

// PathVar is the blackboard variable RequestPathfinding writes the
// serialized waypoint list into. Declared as a string variable.
const PathVar = "Path"

// pathfindTask demonstrates the asynchronous task pattern. The first
// Execute submits a request to the navigation service and returns
// Running; subsequent ticks poll the handle. On completion the waypoint
// list is serialized into the Path blackboard variable and the task
// succeeds. Abort cancels the outstanding request and writes nothing.
//
// Parameters:
//
//	Start  — vector, optional; defaults to the Position variable.
//	Target — vector, required.
type pathfindTask struct {
	requested bool
	id        engine.PathRequestID
	nav       engine.Pathfinder
}

func (p *pathfindTask) Execute(tc *engine.TaskContext) engine.Status {
	if tc.Nav == nil {
		tc.Log.Warn("RequestPathfinding: no navigation service")
		return engine.StatusFailure
	}

	if !p.requested {
		targetVal, err := tc.Params.Require("Target", engine.TypeVector)
		if err != nil {
			tc.Log.Warn("RequestPathfinding: bad Target parameter", slog.Any("error", err))
			return engine.StatusFailure
		}
		target, _ := targetVal.AsVector()

		start, ok := p.startPoint(tc)
		if !ok {
			return engine.StatusFailure
		}

		id, err := tc.Nav.Request(start, target)
		if err != nil {
			tc.Log.Warn("RequestPathfinding: submit failed", slog.Any("error", err))
			return engine.StatusFailure
		}
		p.requested = true
		p.id = id
		p.nav = tc.Nav
		return engine.StatusRunning
	}

	result, done := tc.Nav.Poll(p.id)
	if !done {
		return engine.StatusRunning
	}
	p.requested = false
	if result.Err != nil {
		tc.Log.Warn("RequestPathfinding: no path", slog.Any("error", result.Err))
		return engine.StatusFailure
	}

	encoded, err := json.Marshal(result.Waypoints)
	if err != nil {
		return engine.StatusFailure
	}
	if tc.Blackboard == nil {
		return engine.StatusFailure
	}
	if err := tc.Blackboard.SetValue(PathVar, engine.StringValue(string(encoded))); err != nil {
		tc.Log.Warn("RequestPathfinding: cannot store path", slog.Any("error", err))
		return engine.StatusFailure
	}
	return engine.StatusSuccess
}

// startPoint resolves the Start parameter, falling back to the entity's
// Position variable.
func (p *pathfindTask) startPoint(tc *engine.TaskContext) (engine.Vec3, bool) {
	if v, ok := tc.Params.Get("Start"); ok {
		start, err := v.AsVector()
		if err != nil {
			tc.Log.Warn("RequestPathfinding: Start is not a vector", slog.Any("error", err))
			return engine.Vec3{}, false
		}
		return start, true
	}
	if tc.Blackboard != nil {
		if v, err := tc.Blackboard.GetValue(PositionVar); err == nil {
			if start, err := v.AsVector(); err == nil {
				return start, true
			}
		}
	}
	tc.Log.Warn("RequestPathfinding: no Start parameter and no Position variable")
	return engine.Vec3{}, false
}

// Abort cancels the in-flight request without touching the blackboard.
// Safe on a never-executed instance.
func (p *pathfindTask) Abort() {
	if p.requested && p.nav != nil {
		p.nav.Cancel(p.id)
		p.requested = false
	}
}
