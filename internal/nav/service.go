// Package nav provides the asynchronous pathfinding service behind the
// engine's Pathfinder boundary. Requests are computed on background
// goroutines bounded by a weighted semaphore; callers submit, then poll
// once per tick, and never block. Cancelling detaches from in-flight
// work — a late result for a cancelled request is discarded.
package nav

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"automaton/pkg/engine"
)

// ErrShutDown is returned by Request after Close.
var ErrShutDown = errors.New("nav: service shut down")

// ErrUnreachable is reported through PathResult when no path exists.
var ErrUnreachable = errors.New("nav: target unreachable")

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds the number of concurrently computed requests.
func WithWorkers(n int64) Option {
	return func(s *Service) { s.slots = semaphore.NewWeighted(n) }
}

// WithStepLength sets the spacing between generated waypoints.
func WithStepLength(l float32) Option {
	return func(s *Service) { s.stepLength = l }
}

// WithLogger overrides the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

type pending struct {
	cancel context.CancelFunc
}

// Service implements engine.Pathfinder. The current planner segments
// the straight line between start and target into evenly spaced
// waypoints; the request/poll/cancel contract is what the rest of the
// system depends on, the planner behind it can grow a real navmesh
// without touching callers.
type Service struct {
	slots      *semaphore.Weighted
	stepLength float32
	log        *slog.Logger

	mu      sync.Mutex
	closed  bool
	pending map[engine.PathRequestID]*pending
	done    map[engine.PathRequestID]engine.PathResult
	wg      sync.WaitGroup
}

// NewService builds a pathfinding service. Defaults: 4 workers, 1.0
// step length.
func NewService(opts ...Option) *Service {
	s := &Service{
		slots:      semaphore.NewWeighted(4),
		stepLength: 1.0,
		log:        slog.Default().With(slog.String("component", "nav")),
		pending:    make(map[engine.PathRequestID]*pending),
		done:       make(map[engine.PathRequestID]engine.PathResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request submits an asynchronous path query and returns immediately.
func (s *Service) Request(start, target engine.Vec3) (engine.PathRequestID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrShutDown
	}

	id := engine.PathRequestID(uuid.NewString())
	ctx, cancel := context.WithCancel(context.Background())
	s.pending[id] = &pending{cancel: cancel}

	s.wg.Add(1)
	go s.compute(ctx, id, start, target)
	return id, nil
}

// Poll reports a finished request exactly once; the id is spent
// afterwards.
func (s *Service) Poll(id engine.PathRequestID) (engine.PathResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.done[id]
	if ok {
		delete(s.done, id)
	}
	return result, ok
}

// Cancel drops an outstanding request. A result that already landed is
// discarded; one that lands later is dropped by compute.
func (s *Service) Cancel(id engine.PathRequestID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.cancel()
		delete(s.pending, id)
	}
	delete(s.done, id)
}

// Close cancels everything outstanding and waits for workers to exit.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for id, p := range s.pending {
		p.cancel()
		delete(s.pending, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) compute(ctx context.Context, id engine.PathRequestID, start, target engine.Vec3) {
	defer s.wg.Done()

	if err := s.slots.Acquire(ctx, 1); err != nil {
		// Cancelled while queued.
		return
	}
	defer s.slots.Release(1)

	waypoints := s.plan(start, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, stillWanted := s.pending[id]; !stillWanted {
		// Cancelled mid-flight: drop the late result.
		return
	}
	delete(s.pending, id)
	s.done[id] = engine.PathResult{Waypoints: waypoints}
}

// plan segments the straight line from start to target. The target is
// always the exact final waypoint.
func (s *Service) plan(start, target engine.Vec3) []engine.Vec3 {
	delta := target.Sub(start)
	dist := delta.Length()
	if dist == 0 {
		return []engine.Vec3{target}
	}
	steps := int(dist / s.stepLength)
	waypoints := make([]engine.Vec3, 0, steps+1)
	for i := 1; i <= steps; i++ {
		waypoints = append(waypoints, start.Add(delta.Scale(float32(i)*s.stepLength/dist)))
	}
	last := engine.Vec3{}
	if len(waypoints) > 0 {
		last = waypoints[len(waypoints)-1]
	}
	if len(waypoints) == 0 || last != target {
		waypoints = append(waypoints, target)
	}
	return waypoints
}
