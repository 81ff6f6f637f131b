// Package sim owns the simulation loop: it builds runners from a
// scenario, ticks them through the executor, and moves their state in
// and out of the persistence layer.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"automaton/internal/asset"
	"automaton/internal/config"
	"automaton/internal/loader"
	"automaton/internal/store"
	"automaton/pkg/engine"
)

// World holds every live runner plus the shared executor, registry,
// and template cache. All mutating entry points take the world lock;
// runner state itself is single-owner and needs no further locking.
type World struct {
	mu       sync.Mutex
	exec     *engine.Executor
	registry *engine.Registry
	cache    *asset.Cache
	runners  map[engine.EntityRef]*engine.Runner
	order    []engine.EntityRef

	dt       float64
	maxTicks int
	ticks    int

	log *slog.Logger
}

// Option configures a World before the scenario is spawned.
type Option func(*worldConfig)

type worldConfig struct {
	nav      engine.Pathfinder
	observer engine.Observer
	log      *slog.Logger
	cache    *asset.Cache
}

// WithPathfinder hands path requests from tasks to nav.
func WithPathfinder(nav engine.Pathfinder) Option {
	return func(c *worldConfig) { c.nav = nav }
}

// WithObserver publishes per-tick events to obs.
func WithObserver(obs engine.Observer) Option {
	return func(c *worldConfig) { c.observer = obs }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *worldConfig) { c.log = log }
}

// WithCache shares a template cache across worlds.
func WithCache(cache *asset.Cache) Option {
	return func(c *worldConfig) { c.cache = cache }
}

// New builds a world from a scenario: every entity gets a runner bound
// to its template, with scenario variable overrides applied on top of
// the declared defaults.
func New(sc *config.Scenario, registry *engine.Registry, opts ...Option) (*World, error) {
	cfg := worldConfig{log: slog.Default().With(slog.String("component", "sim"))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cache == nil {
		cfg.cache = asset.NewCache()
	}

	execOpts := []engine.ExecutorOption{engine.WithLogger(cfg.log)}
	if cfg.nav != nil {
		execOpts = append(execOpts, engine.WithPathfinder(cfg.nav))
	}
	if cfg.observer != nil {
		execOpts = append(execOpts, engine.WithObserver(cfg.observer))
	}

	w := &World{
		exec:     engine.NewExecutor(registry, execOpts...),
		registry: registry,
		cache:    cfg.cache,
		runners:  make(map[engine.EntityRef]*engine.Runner),
		dt:       sc.Tick.DT,
		maxTicks: sc.Tick.MaxTicks,
		log:      cfg.log,
	}

	for _, e := range sc.Entities {
		if err := w.spawn(engine.EntityRef(e.ID), e.Template, e.Variables); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Spawn adds an entity at runtime running the given template.
func (w *World) Spawn(entity engine.EntityRef, templatePath string, vars map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawn(entity, templatePath, vars)
}

func (w *World) spawn(entity engine.EntityRef, templatePath string, vars map[string]any) error {
	if _, exists := w.runners[entity]; exists {
		return fmt.Errorf("sim: entity %d already spawned", entity)
	}
	tmpl, err := w.loadTemplate(templatePath)
	if err != nil {
		return err
	}
	r, err := engine.NewRunner(entity, tmpl)
	if err != nil {
		return fmt.Errorf("sim: entity %d: %w", entity, err)
	}
	r.TemplatePath = templatePath
	if err := applyOverrides(r.Blackboard, vars); err != nil {
		return fmt.Errorf("sim: entity %d: %w", entity, err)
	}
	w.runners[entity] = r
	w.order = append(w.order, entity)
	w.log.Debug("spawned entity", "entity", entity, "template", templatePath)
	return nil
}

func (w *World) loadTemplate(path string) (*engine.Template, error) {
	h, err := w.cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("sim: load template %s: %w", path, err)
	}
	tmpl, _ := w.cache.Get(h)
	return tmpl, nil
}

func applyOverrides(bb *engine.Blackboard, vars map[string]any) error {
	for name, raw := range vars {
		typ, err := bb.DeclaredType(name)
		if err != nil {
			return err
		}
		v, err := loader.CoerceValue(typ, raw)
		if err != nil {
			return fmt.Errorf("override %s: %w", name, err)
		}
		if err := bb.SetValue(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Step advances every runner by dt seconds, in spawn order.
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.order {
		w.exec.Tick(w.runners[id], dt)
	}
	w.ticks++
}

// Run ticks the world at the scenario rate until every runner is
// finished, the tick limit is hit, or ctx is cancelled. It returns the
// number of ticks executed in this call.
func (w *World) Run(ctx context.Context) (int, error) {
	start := w.Ticks()
	for {
		select {
		case <-ctx.Done():
			return w.Ticks() - start, ctx.Err()
		default:
		}
		if w.Finished() {
			return w.Ticks() - start, nil
		}
		if w.maxTicks > 0 && w.Ticks() >= w.maxTicks {
			w.log.Warn("tick limit reached", "ticks", w.Ticks())
			return w.Ticks() - start, nil
		}
		w.Step(w.dt)
	}
}

// Finished reports whether every runner has parked.
func (w *World) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.runners {
		if !r.Finished() {
			return false
		}
	}
	return true
}

// Ticks returns the number of ticks stepped so far.
func (w *World) Ticks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}

// DT returns the scenario tick length in seconds.
func (w *World) DT() float64 { return w.dt }

// Runner returns the live runner for an entity.
func (w *World) Runner(entity engine.EntityRef) (*engine.Runner, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.runners[entity]
	return r, ok
}

// Entities lists spawned entities in spawn order.
func (w *World) Entities() []engine.EntityRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]engine.EntityRef, len(w.order))
	copy(out, w.order)
	return out
}

// Interrupt parks an entity's cursor; its in-flight task is aborted on
// the next tick.
func (w *World) Interrupt(entity engine.EntityRef) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.runners[entity]
	if ok {
		r.Interrupt()
	}
	return ok
}

// SaveAll writes every runner's state to st.
func (w *World) SaveAll(st store.Store) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.order {
		r := w.runners[id]
		state := &store.SavedState{
			TemplatePath: r.TemplatePath,
			Current:      r.Current,
			Elapsed:      r.Elapsed,
			LastStatus:   r.LastStatus,
			Blackboard:   r.Blackboard.Serialize(),
		}
		if err := st.SaveState(id, state); err != nil {
			return err
		}
	}
	return nil
}

// RestoreAll rebuilds runners from st, replacing any current
// population. Blackboard bytes are restored through each template's
// declarations, so variables added or retyped since the save keep
// their defaults; every skipped field is logged.
func (w *World) RestoreAll(st store.Store) error {
	entities, err := st.ListEntities()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.runners = make(map[engine.EntityRef]*engine.Runner, len(entities))
	w.order = w.order[:0]

	for _, id := range entities {
		state, err := st.LoadState(id)
		if err != nil {
			return err
		}
		tmpl, err := w.loadTemplate(state.TemplatePath)
		if err != nil {
			return err
		}
		r, err := engine.NewRunner(id, tmpl)
		if err != nil {
			return fmt.Errorf("sim: restore entity %d: %w", id, err)
		}
		r.TemplatePath = state.TemplatePath
		r.Current = state.Current
		r.Elapsed = state.Elapsed
		r.LastStatus = state.LastStatus

		skipped, err := r.Blackboard.Deserialize(state.Blackboard)
		if err != nil {
			return fmt.Errorf("sim: restore entity %d: %w", id, err)
		}
		for _, sf := range skipped {
			w.log.Warn("dropped saved variable",
				"entity", id, "variable", sf.Name, "reason", sf.Reason)
		}

		w.runners[id] = r
		w.order = append(w.order, id)
	}
	return nil
}
