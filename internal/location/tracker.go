// Package location mediates device location permission and one-shot
// coordinate delivery.
package location

import (
	"context"
	"log/slog"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// AuthorizationState is the device location permission.
type AuthorizationState string

const (
	NotDetermined AuthorizationState = "notDetermined"
	Allowed       AuthorizationState = "allowed"
	Denied        AuthorizationState = "denied"
)

func (s AuthorizationState) Valid() bool {
	switch s {
	case NotDetermined, Allowed, Denied:
		return true
	}
	return false
}

// Device is the OS-level permission store and locator.
type Device interface {
	AuthorizationStatus() AuthorizationState
	// PromptAuthorization asks the user; the answer arrives later through
	// Tracker.AuthorizationDidChange.
	PromptAuthorization()
	CurrentLocation(ctx context.Context) (weather.Coordinate, error)
}

type EventKind int

const (
	AuthorizationChanged EventKind = iota + 1
	LocationUpdated
)

// Event is emitted on the tracker's stream. State is set for
// AuthorizationChanged, Coordinate for LocationUpdated.
type Event struct {
	Kind       EventKind
	State      AuthorizationState
	Coordinate weather.Coordinate
}

// Tracker is the authorization state machine. It only observes the device's
// permission store and never overrides a denial.
type Tracker struct {
	device Device
	logger *slog.Logger

	mu    sync.Mutex
	state AuthorizationState

	events    chan Event
	wg        sync.WaitGroup
	closed    chan struct{}
	closeOnce sync.Once
}

func NewTracker(device Device, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	state := device.AuthorizationStatus()
	if !state.Valid() {
		state = NotDetermined
	}
	return &Tracker{
		device: device,
		logger: logger,
		state:  state,
		events: make(chan Event, 16),
		closed: make(chan struct{}),
	}
}

// Events is the tracker's event stream. There is a single consumer.
func (t *Tracker) Events() <-chan Event {
	return t.events
}

func (t *Tracker) State() AuthorizationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// RequestAuthorization prompts when the permission is undetermined, records a
// denial, and requests a location when already allowed.
func (t *Tracker) RequestAuthorization(ctx context.Context) {
	switch t.device.AuthorizationStatus() {
	case NotDetermined:
		t.device.PromptAuthorization()
	case Denied:
		t.transition(ctx, Denied)
	case Allowed:
		t.transition(ctx, Allowed)
		t.requestLocation(ctx)
	}
}

// AuthorizationDidChange is called when the device's permission store changes.
// Entering Allowed issues exactly one location request.
func (t *Tracker) AuthorizationDidChange(ctx context.Context, state AuthorizationState) {
	if !state.Valid() {
		return
	}
	if t.transition(ctx, state) && state == Allowed {
		t.requestLocation(ctx)
	}
}

// RefreshLocation requests a new fix. It is a no-op unless Allowed.
func (t *Tracker) RefreshLocation(ctx context.Context) {
	if t.State() != Allowed {
		return
	}
	t.requestLocation(ctx)
}

// Wait blocks until in-flight location requests have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Close drops every later event and waits for in-flight location requests.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() { close(t.closed) })
	t.wg.Wait()
}

// transition reports whether the state changed.
func (t *Tracker) transition(ctx context.Context, state AuthorizationState) bool {
	t.mu.Lock()
	if t.state == state {
		t.mu.Unlock()
		return false
	}
	t.state = state
	t.mu.Unlock()

	t.emit(ctx, Event{Kind: AuthorizationChanged, State: state})
	return true
}

// requestLocation runs in the background. A failure is logged and produces no
// event; the authorization state is unchanged.
func (t *Tracker) requestLocation(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		coord, err := t.device.CurrentLocation(ctx)
		if err != nil {
			t.logger.Warn("location request failed", "error", err)
			return
		}
		t.emit(ctx, Event{Kind: LocationUpdated, Coordinate: coord})
	}()
}

func (t *Tracker) emit(ctx context.Context, ev Event) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
		t.logger.Debug("location event dropped", "kind", ev.Kind, "error", ctx.Err())
	case <-t.closed:
		t.logger.Debug("location event dropped, tracker closed", "kind", ev.Kind)
	}
}
