// Package dashboard owns the presentation state: load state, query, the latest
// bundle, history and location authorization.
package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/history"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

//go:generate mockgen -destination=mock/resolver.go -package=mock . Resolver

// Resolver produces bundles; implemented by weather.Service.
type Resolver interface {
	ResolveCity(ctx context.Context, city string) (*weather.Bundle, error)
	ResolveCoordinate(ctx context.Context, coord weather.Coordinate) (*weather.Bundle, error)
}

// HistoryLog is implemented by history.Log.
type HistoryLog interface {
	Load(ctx context.Context) []weather.HistoryEntry
	Save(entries []weather.HistoryEntry)
}

// LocationTracker is implemented by location.Tracker.
type LocationTracker interface {
	State() location.AuthorizationState
	RequestAuthorization(ctx context.Context)
	Events() <-chan location.Event
}

// Controller serializes every state change behind one lock and runs loads in
// the background. Only the most recently started load may change state.
type Controller struct {
	resolver Resolver
	history  HistoryLog
	tracker  LocationTracker
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	generation  uint64
	cancelLoad  context.CancelFunc
	awaitingFix bool
	subs        map[uint64]chan State
	nextSub     uint64

	loads sync.WaitGroup
}

func New(resolver Resolver, hist HistoryLog, tracker LocationTracker, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		resolver: resolver,
		history:  hist,
		tracker:  tracker,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			Load:          LoadState{Phase: PhaseIdle},
			Authorization: tracker.State(),
		},
		subs: make(map[uint64]chan State),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnAppear loads the history and mirrors the authorization state. No network.
func (c *Controller) OnAppear(ctx context.Context) {
	entries := c.history.Load(ctx)
	auth := c.tracker.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(HistoryLoaded{Entries: entries})
	c.dispatchLocked(AuthorizationChanged{State: auth})
}

func (c *Controller) SetSearchQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(QueryChanged{Query: q})
}

// Search loads the trimmed query. It reports false, doing nothing, when the
// query is blank.
func (c *Controller) Search() bool {
	c.mu.Lock()
	city := strings.TrimSpace(c.state.SearchQuery)
	c.mu.Unlock()

	if city == "" {
		return false
	}
	c.startLoad(true, "city", func(ctx context.Context) (*weather.Bundle, error) {
		return c.resolver.ResolveCity(ctx, city)
	})
	return true
}

// UseCurrentLocation arms a one-shot load for the next coordinate the tracker
// emits and asks for authorization.
func (c *Controller) UseCurrentLocation() {
	c.mu.Lock()
	c.awaitingFix = true
	c.mu.Unlock()

	c.tracker.RequestAuthorization(c.ctx)
}

// Refresh reloads the held bundle's coordinate without touching history. It
// reports false when there is nothing to refresh.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	held := c.state.Weather
	c.mu.Unlock()

	if held == nil {
		return false
	}
	coord := held.Location.Coordinate
	c.startLoad(false, "refresh", func(ctx context.Context) (*weather.Bundle, error) {
		return c.resolver.ResolveCoordinate(ctx, coord)
	})
	return true
}

// Run consumes tracker events until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	events := c.tracker.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) handleEvent(ev location.Event) {
	switch ev.Kind {
	case location.AuthorizationChanged:
		c.mu.Lock()
		c.dispatchLocked(AuthorizationChanged{State: ev.State})
		c.mu.Unlock()

	case location.LocationUpdated:
		c.mu.Lock()
		armed := c.awaitingFix
		c.awaitingFix = false
		c.mu.Unlock()

		if !armed {
			return
		}
		coord := ev.Coordinate
		c.startLoad(true, "location", func(ctx context.Context) (*weather.Bundle, error) {
			return c.resolver.ResolveCoordinate(ctx, coord)
		})
	}
}

// Subscribe returns a channel that always holds the latest state; older
// undelivered snapshots are replaced. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 1)
	ch <- c.state
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Wait blocks until every started load has finished.
func (c *Controller) Wait() {
	c.loads.Wait()
}

// Close cancels in-flight loads and waits for them.
func (c *Controller) Close() {
	c.cancel()
	c.loads.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// startLoad supersedes any load in flight: its context is cancelled and its
// result, whatever it is, is discarded.
func (c *Controller) startLoad(record bool, trigger string, fn func(ctx context.Context) (*weather.Bundle, error)) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelLoad = cancel
	c.dispatchLocked(LoadStarted{})
	c.loads.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.loads.Done()
		defer cancel()

		b, err := fn(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.generation {
			c.logger.Debug("discarding superseded load", "trigger", trigger, "generation", gen, "latest", c.generation)
			return
		}
		c.cancelLoad = nil

		if err != nil {
			c.logger.Warn("weather load failed", "trigger", trigger, "error", err)
			c.dispatchLocked(LoadFailed{Message: err.Error()})
			return
		}

		var entry *weather.HistoryEntry
		if record {
			e := history.NewEntry(b)
			entry = &e
		}
		c.dispatchLocked(LoadSucceeded{Bundle: b, Entry: entry})
		if record {
			c.history.Save(c.state.History)
		}
	}()
}

func (c *Controller) dispatchLocked(a Action) {
	c.state = Reduce(c.state, a)
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
