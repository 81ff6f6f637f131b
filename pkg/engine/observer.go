package engine

import "log/slog"

// TickEvent is the per-tick publication for editor and debug tooling:
// which entity ticked, where its cursor is now, the status of the last
// completed node, and a read-only blackboard snapshot.
type TickEvent struct {
	Entity     EntityRef
	Node       NodeID
	LastStatus Status
	Running    bool
	Snapshot   map[string]Value
}

// Observer receives tick events from the executor. Single-method
// design so new event payload fields never break implementations.
// Observers must not block; they run inline on the tick path.
type Observer interface {
	OnTick(TickEvent)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(TickEvent)

func (f ObserverFunc) OnTick(e TickEvent) { f(e) }

// MultiObserver fans events out to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnTick(e TickEvent) {
	for _, obs := range m {
		obs.OnTick(e)
	}
}

// LogObserver writes tick events as structured slog lines at Debug
// level. Useful while authoring graphs; too chatty for production.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnTick(e TickEvent) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Debug("tick",
		slog.Uint64("entity", uint64(e.Entity)),
		slog.String("node", string(e.Node)),
		slog.String("last_status", e.LastStatus.String()),
		slog.Bool("running", e.Running))
}
