package engine

// Runner is one entity's live execution state against a shared
// template: the node cursor, the per-node elapsed timer, the entity's
// blackboard, the last completed status, and ownership of the in-flight
// task instance if one is running. A runner is exclusively owned — no
// two runners share a blackboard or an active task, so runners need no
// locking between each other.
type Runner struct {
	Entity       EntityRef
	TemplatePath string

	Template   *Template
	Blackboard *Blackboard

	// Current is the node cursor; NoNode means the graph is finished
	// (or was interrupted) and stays parked until rebound.
	Current NodeID
	// Elapsed is time in seconds spent on the current node.
	Elapsed float64
	// LastStatus is the status of the most recently completed node.
	LastStatus Status

	active       Task
	activeNode   NodeID
	activeParams Params
}

// NewRunner binds an entity to a template: the cursor starts at the
// root and the blackboard is initialized from the template's
// declarations.
func NewRunner(entity EntityRef, tmpl *Template) (*Runner, error) {
	bb := NewBlackboard()
	if err := bb.Initialize(tmpl); err != nil {
		return nil, err
	}
	return &Runner{
		Entity:     entity,
		Template:   tmpl,
		Blackboard: bb,
		Current:    tmpl.RootNode,
		LastStatus: StatusSuccess,
	}, nil
}

// Rebind points the runner at a (possibly new) template and restarts
// from its root. Any in-flight task is aborted first; the blackboard is
// rebuilt from the new template's declarations.
func (r *Runner) Rebind(tmpl *Template) error {
	r.releaseActive(true)
	if err := r.Blackboard.Initialize(tmpl); err != nil {
		return err
	}
	r.Template = tmpl
	r.Current = tmpl.RootNode
	r.Elapsed = 0
	r.LastStatus = StatusSuccess
	return nil
}

// Restart rewinds the cursor to the template root without touching
// blackboard values. In-flight work is aborted.
func (r *Runner) Restart() {
	r.releaseActive(true)
	r.Current = r.Template.RootNode
	r.Elapsed = 0
}

// Interrupt requests the graph to stop: the cursor moves to NoNode and
// the in-flight task, if any, is aborted on the next executor pass.
// Cancellation is cooperative — nothing is signalled mid-Execute.
func (r *Runner) Interrupt() {
	r.Current = NoNode
}

// Finished reports whether the cursor is parked on NoNode with no task
// left to abort.
func (r *Runner) Finished() bool {
	return r.Current == NoNode && r.active == nil
}

// HasActiveTask reports whether a multi-tick task instance is in
// flight.
func (r *Runner) HasActiveTask() bool { return r.active != nil }

// releaseActive drops the in-flight instance. abort distinguishes
// interruption (Abort must fire exactly once) from normal completion
// (the task finished on its own terms, no Abort).
func (r *Runner) releaseActive(abort bool) {
	if r.active == nil {
		return
	}
	if abort {
		r.active.Abort()
	}
	r.active = nil
	r.activeNode = NoNode
	r.activeParams = nil
}
