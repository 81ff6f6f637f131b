package tasks

import (
	"log/slog"

	"automaton/pkg/engine"
)

const (
	// PositionVar is the blackboard variable MoveToLocation reads and
	// writes as the entity's position source.
	PositionVar = "Position"

	defaultMoveSpeed        = 100.0
	defaultAcceptanceRadius = 1.0
)

// moveTask steps the entity's Position toward a target each tick.
//
// Parameters:
//
//	Target           — vector, required.
//	Speed            — float, units/sec, default 100.
//	AcceptanceRadius — float, default 1.
//
// Running while the distance to Target exceeds the acceptance radius;
// the final step snaps exactly onto Target. Failure when no position
// source is available (Position missing or not a vector).
type moveTask struct{}

func (m *moveTask) Execute(tc *engine.TaskContext) engine.Status {
	targetVal, err := tc.Params.Require("Target", engine.TypeVector)
	if err != nil {
		tc.Log.Warn("MoveToLocation: bad Target parameter", slog.Any("error", err))
		return engine.StatusFailure
	}
	target, _ := targetVal.AsVector()

	speed := float32(defaultMoveSpeed)
	if v, ok := tc.Params.Get("Speed"); ok {
		s, err := v.AsFloat()
		if err != nil || s <= 0 {
			tc.Log.Warn("MoveToLocation: invalid Speed", slog.String("value", v.String()))
			return engine.StatusFailure
		}
		speed = s
	}
	radius := float32(defaultAcceptanceRadius)
	if v, ok := tc.Params.Get("AcceptanceRadius"); ok {
		r, err := v.AsFloat()
		if err != nil || r < 0 {
			tc.Log.Warn("MoveToLocation: invalid AcceptanceRadius", slog.String("value", v.String()))
			return engine.StatusFailure
		}
		radius = r
	}

	if tc.Blackboard == nil {
		return engine.StatusFailure
	}
	posVal, err := tc.Blackboard.GetValue(PositionVar)
	if err != nil {
		tc.Log.Warn("MoveToLocation: no position source", slog.Any("error", err))
		return engine.StatusFailure
	}
	pos, err := posVal.AsVector()
	if err != nil {
		tc.Log.Warn("MoveToLocation: Position is not a vector", slog.Any("error", err))
		return engine.StatusFailure
	}

	delta := target.Sub(pos)
	dist := delta.Length()
	if dist <= radius {
		// Arrived: snap exactly onto the target so downstream nodes see
		// a deterministic position.
		if err := tc.Blackboard.SetValue(PositionVar, engine.VectorValue(target)); err != nil {
			return engine.StatusFailure
		}
		return engine.StatusSuccess
	}

	step := speed * float32(tc.Delta)
	if step >= dist {
		if err := tc.Blackboard.SetValue(PositionVar, engine.VectorValue(target)); err != nil {
			return engine.StatusFailure
		}
		return engine.StatusSuccess
	}
	next := pos.Add(delta.Scale(step / dist))
	if err := tc.Blackboard.SetValue(PositionVar, engine.VectorValue(next)); err != nil {
		return engine.StatusFailure
	}
	return engine.StatusRunning
}

func (m *moveTask) Abort() {}
