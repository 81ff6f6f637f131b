package engine

import (
	"fmt"
	"log/slog"
)

// Executor advances runners through their graphs, one step per
// simulation tick. It is single-threaded and cooperative: exactly one
// runner is advanced at a time and Execute never blocks, so driving
// thousands of runners per tick stays cheap and deterministic.
type Executor struct {
	registry *Registry
	nav      Pathfinder
	observer Observer
	log      *slog.Logger
}

// ExecutorOption configures an Executor during construction.
type ExecutorOption func(*Executor)

// WithPathfinder wires the navigation boundary tasks poll through.
func WithPathfinder(nav Pathfinder) ExecutorOption {
	return func(e *Executor) { e.nav = nav }
}

// WithObserver attaches a tick observer. Absence of an observer is a
// nil check and nothing more.
func WithObserver(obs Observer) ExecutorOption {
	return func(e *Executor) { e.observer = obs }
}

// WithLogger overrides the executor's diagnostic logger.
func WithLogger(log *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.log = log }
}

// NewExecutor builds an executor over the given task registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		log:      slog.Default().With(slog.String("component", "engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick advances one runner by one step with timestep dt (seconds).
//
// The sequence per tick: honor a pending interruption (cursor on NoNode
// with a task still in flight: abort exactly once and release); resolve
// the current node; create the task instance and resolve parameter
// bindings if none is in flight; invoke Execute; on Running keep the
// instance and accumulate elapsed time, on completion release the
// instance (no Abort — it finished on its own terms) and move the
// cursor along the matching transition. Dispatch problems — unknown
// task identity, a composite node under the cursor, parameter
// resolution failure — are logged and treated as the node failing, so
// the graph keeps moving via NextOnFailure instead of stalling.
func (e *Executor) Tick(r *Runner, dt float64) {
	if r.Current == NoNode {
		// Interruption or normal termination: a surviving instance is
		// aborted exactly once, then the runner is idle.
		r.releaseActive(true)
		return
	}

	// External retarget without passing through NoNode: the old
	// instance belongs to a node we are no longer on.
	if r.active != nil && r.activeNode != r.Current {
		r.releaseActive(true)
		r.Elapsed = 0
	}

	node, ok := r.Template.Node(r.Current)
	if !ok {
		// Loader guarantees resolvability; reaching this means the
		// template was corrupted after validation.
		e.log.Error("node cursor does not resolve, stopping graph",
			slog.Uint64("entity", uint64(r.Entity)),
			slog.String("node", string(r.Current)))
		r.LastStatus = StatusFailure
		r.Current = NoNode
		e.publish(r)
		return
	}

	if r.active == nil {
		task, params, err := e.dispatch(node, r)
		if err != nil {
			e.log.Warn("dispatch failed, taking failure transition",
				slog.Uint64("entity", uint64(r.Entity)),
				slog.String("node", string(node.ID)),
				slog.String("task", node.TaskID),
				slog.Any("error", err))
			e.complete(r, node, StatusFailure)
			e.publish(r)
			return
		}
		r.active = task
		r.activeNode = node.ID
		r.activeParams = params
		r.Elapsed = 0
	}

	tc := &TaskContext{
		Params:     r.activeParams,
		Blackboard: r.Blackboard,
		Entity:     r.Entity,
		Elapsed:    r.Elapsed + dt,
		Delta:      dt,
		Nav:        e.nav,
		Log:        e.log,
	}

	switch status := r.active.Execute(tc); status {
	case StatusRunning:
		r.Elapsed += dt
	case StatusSuccess, StatusFailure:
		r.releaseActive(false)
		e.complete(r, node, status)
	}
	e.publish(r)
}

// TickAll advances every runner once, in slice order.
func (e *Executor) TickAll(runners []*Runner, dt float64) {
	for _, r := range runners {
		e.Tick(r, dt)
	}
}

// dispatch validates the node for execution, resolves its parameter
// bindings against the live blackboard, and creates a fresh task
// instance. Resolution happens once per dispatch: a task that runs for
// many ticks keeps seeing the parameter values captured when it
// started.
func (e *Executor) dispatch(node *NodeDefinition, r *Runner) (Task, Params, error) {
	if node.Kind != KindAtomicTask {
		return nil, nil, fmt.Errorf("engine: node %q is %s, only atomic task nodes execute", node.ID, node.Kind)
	}
	params, err := resolveParams(node, r.Blackboard)
	if err != nil {
		return nil, nil, err
	}
	task := e.registry.Create(node.TaskID)
	if task == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTask, node.TaskID)
	}
	return task, params, nil
}

// complete records a node outcome and moves the cursor along the
// matching transition. A transition to NoNode finishes the graph.
func (e *Executor) complete(r *Runner, node *NodeDefinition, status Status) {
	r.LastStatus = status
	r.Elapsed = 0
	if status == StatusSuccess {
		r.Current = node.NextOnSuccess
	} else {
		r.Current = node.NextOnFailure
	}
}

func (e *Executor) publish(r *Runner) {
	if e.observer == nil {
		return
	}
	e.observer.OnTick(TickEvent{
		Entity:     r.Entity,
		Node:       r.Current,
		LastStatus: r.LastStatus,
		Running:    r.active != nil,
		Snapshot:   r.Blackboard.Snapshot(),
	})
}
