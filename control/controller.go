// Package control schedules recurring dashboard evaluations.
//
// A Controller owns one refresh loop per subscription. Every tick re-runs
// the whole program: parse, bind and evaluate, so schema and data changes
// show up on the next refresh without any cache invalidation. A failed tick
// keeps the previous dashboard state and retries on the next one.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/victorcalife/tql/format"
)

// DefaultInterval is the refresh cadence for dashboards that do not declare
// ATUALIZAR_A_CADA.
const DefaultInterval = time.Minute

// Evaluator runs one full program evaluation at the given instant.
type Evaluator interface {
	Evaluate(ctx context.Context, src, tenantID string, now time.Time) ([]*format.DashboardSpec, error)
}

// State is the lifecycle state of a subscription.
type State int

const (
	Idle State = iota
	Scheduled
	Evaluating
	Errored
	Unsubscribed
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Evaluating:
		return "evaluating"
	case Errored:
		return "errored"
	case Unsubscribed:
		return "unsubscribed"
	default:
		return "idle"
	}
}

// Controller manages dashboard subscriptions.
type Controller struct {
	evaluator Evaluator
	clock     clock.Clock
	logger    zerolog.Logger
	interval  time.Duration
	metrics   *controllerMetrics

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock substitutes the wall clock, typically with a mock in tests.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// WithDefaultInterval overrides DefaultInterval.
func WithDefaultInterval(d time.Duration) Option {
	return func(ctrl *Controller) { ctrl.interval = d }
}

// New builds a Controller around an evaluator.
func New(evaluator Evaluator, opts ...Option) *Controller {
	ctrl := &Controller{
		evaluator: evaluator,
		clock:     clock.New(),
		logger:    zerolog.Nop(),
		interval:  DefaultInterval,
		metrics:   newControllerMetrics(),
		subs:      make(map[uuid.UUID]*Subscription),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// PrometheusCollectors exposes the controller metrics for registration.
func (c *Controller) PrometheusCollectors() []prometheus.Collector {
	return c.metrics.PrometheusCollectors()
}

// Subscribe starts a refresh loop for the program and returns its
// subscription. The first evaluation happens immediately; results arrive on
// Subscription.Updates.
func (c *Controller) Subscribe(ctx context.Context, src, tenantID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		id:       uuid.New(),
		ctrl:     c,
		src:      src,
		tenantID: tenantID,
		state:    Idle,
		cancel:   cancel,
		updates:  make(chan []*format.DashboardSpec, 1),
		done:     make(chan struct{}),
	}
	c.mu.Lock()
	c.subs[s.id] = s
	c.mu.Unlock()
	c.metrics.subscriptions.Inc()

	go s.run(ctx)
	return s
}

// Shutdown unsubscribes everything.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (c *Controller) remove(s *Subscription) {
	c.mu.Lock()
	if _, ok := c.subs[s.id]; ok {
		delete(c.subs, s.id)
		c.metrics.subscriptions.Dec()
	}
	c.mu.Unlock()
}

// Subscription is one scheduled dashboard program.
type Subscription struct {
	id       uuid.UUID
	ctrl     *Controller
	src      string
	tenantID string

	mu    sync.RWMutex
	state State
	specs []*format.DashboardSpec
	err   error

	cancel    context.CancelFunc
	updates   chan []*format.DashboardSpec
	done      chan struct{}
	closeOnce sync.Once
}

// ID identifies the subscription.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Updates delivers the latest dashboard specs after each successful
// evaluation. The channel holds only the most recent result; slow consumers
// never block the refresh loop.
func (s *Subscription) Updates() <-chan []*format.DashboardSpec { return s.updates }

// State is the current lifecycle state.
func (s *Subscription) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Specs is the most recent successful result. A failed refresh keeps the
// previous specs.
func (s *Subscription) Specs() []*format.DashboardSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.specs
}

// Err is the error of the last failed evaluation, cleared on success.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Unsubscribe stops the refresh loop, cancelling any in-flight evaluation.
// Unsubscribed is terminal.
func (s *Subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		s.mu.Lock()
		s.state = Unsubscribed
		s.mu.Unlock()
		s.ctrl.remove(s)
	})
}

func (s *Subscription) run(ctx context.Context) {
	logger := s.ctrl.logger.With().
		Str("subscription", s.id.String()).
		Str("tenant", s.tenantID).
		Logger()

	for {
		interval := s.evaluateOnce(ctx, logger)

		timer := s.ctrl.clock.Timer(interval)
		select {
		case <-timer.C:
		case <-s.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			s.Unsubscribe()
			return
		}
	}
}

// evaluateOnce runs one refresh and returns the delay until the next.
func (s *Subscription) evaluateOnce(ctx context.Context, logger zerolog.Logger) time.Duration {
	s.setState(Evaluating)
	start := s.ctrl.clock.Now()

	specs, err := s.ctrl.evaluator.Evaluate(ctx, s.src, s.tenantID, start)
	s.ctrl.metrics.duration.Observe(s.ctrl.clock.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setStateLocked(Errored)
		s.err = err
		s.ctrl.metrics.evaluations.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Msg("refresh failed, keeping previous state")
		return s.refreshIntervalLocked()
	}

	s.setStateLocked(Scheduled)
	s.specs = specs
	s.err = nil
	s.ctrl.metrics.evaluations.WithLabelValues("success").Inc()
	logger.Debug().Int("dashboards", len(specs)).Msg("refresh complete")

	// latest result wins, a stale pending update is dropped
	select {
	case <-s.updates:
	default:
	}
	s.updates <- specs

	return s.refreshIntervalLocked()
}

// refreshIntervalLocked derives the tick interval from the declared refresh
// cadences, taking the shortest. Programs declaring none use the controller
// default. Callers hold s.mu.
func (s *Subscription) refreshIntervalLocked() time.Duration {
	var interval time.Duration
	for _, spec := range s.specs {
		if spec.RefreshEvery > 0 && (interval == 0 || spec.RefreshEvery < interval) {
			interval = spec.RefreshEvery
		}
	}
	if interval == 0 {
		interval = s.ctrl.interval
	}
	return interval
}

func (s *Subscription) setState(state State) {
	s.mu.Lock()
	s.setStateLocked(state)
	s.mu.Unlock()
}

// setStateLocked guards the terminal state. Callers hold s.mu.
func (s *Subscription) setStateLocked(state State) {
	if s.state != Unsubscribed {
		s.state = state
	}
}
