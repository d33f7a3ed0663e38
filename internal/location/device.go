package location

import (
	"context"
	"errors"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var ErrNoFix = errors.New("no location fix available")

// ManualDevice is a Device whose permission and position are set from outside
// the process (HTTP hooks or configuration).
type ManualDevice struct {
	mu       sync.RWMutex
	status   AuthorizationState
	fix      *weather.Coordinate
	prompted int
}

// NewManualDevice starts in status with an optional initial fix.
func NewManualDevice(status AuthorizationState, fix *weather.Coordinate) *ManualDevice {
	if !status.Valid() {
		status = NotDetermined
	}
	d := &ManualDevice{status: status}
	if fix != nil {
		c := *fix
		d.fix = &c
	}
	return d
}

func (d *ManualDevice) AuthorizationStatus() AuthorizationState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// PromptAuthorization only counts prompts; the answer is delivered with
// SetAuthorization followed by Tracker.AuthorizationDidChange.
func (d *ManualDevice) PromptAuthorization() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompted++
}

func (d *ManualDevice) Prompts() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prompted
}

func (d *ManualDevice) CurrentLocation(ctx context.Context) (weather.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.fix == nil {
		return weather.Coordinate{}, ErrNoFix
	}
	return *d.fix, nil
}

// SetAuthorization changes the permission store and returns the new state.
func (d *ManualDevice) SetAuthorization(status AuthorizationState) AuthorizationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if status.Valid() {
		d.status = status
	}
	return d.status
}

func (d *ManualDevice) SetFix(c weather.Coordinate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fix = &c
}

// Hooks applies external changes to a ManualDevice and notifies the Tracker
// observing it, the way the OS would.
type Hooks struct {
	device  *ManualDevice
	tracker *Tracker
}

func NewHooks(device *ManualDevice, tracker *Tracker) *Hooks {
	return &Hooks{device: device, tracker: tracker}
}

// SetAuthorization updates the permission store and returns the resulting state.
func (h *Hooks) SetAuthorization(ctx context.Context, state AuthorizationState) AuthorizationState {
	got := h.device.SetAuthorization(state)
	h.tracker.AuthorizationDidChange(ctx, got)
	return got
}

// SetLocation records a new fix and asks the tracker for it. Nothing is
// emitted unless the tracker is Allowed.
func (h *Hooks) SetLocation(ctx context.Context, c weather.Coordinate) {
	h.device.SetFix(c)
	h.tracker.RefreshLocation(ctx)
}
