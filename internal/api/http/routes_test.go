package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tj/assert"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type fakeDashboard struct {
	mu       sync.Mutex
	state    dashboard.State
	searches int
	located  int
	refresh  bool
	stream   []dashboard.State
}

func (f *fakeDashboard) State() dashboard.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeDashboard) SetSearchQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.SearchQuery = q
}

func (f *fakeDashboard) Search() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(f.state.SearchQuery) == "" {
		return false
	}
	f.searches++
	f.state.Load = dashboard.LoadState{Phase: dashboard.PhaseLoading}
	return true
}

func (f *fakeDashboard) UseCurrentLocation() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.located++
}

func (f *fakeDashboard) Refresh() bool {
	return f.refresh
}

// Subscribe replays stream and then ends it.
func (f *fakeDashboard) Subscribe() (<-chan dashboard.State, func()) {
	ch := make(chan dashboard.State, len(f.stream))
	for _, s := range f.stream {
		ch <- s
	}
	close(ch)
	return ch, func() {}
}

func newApp(d Dashboard, hooks DeviceHooks) *fiber.App {
	app := fiber.New()
	RegisterRoutes(context.Background(), app, d, hooks)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	assert.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp, string(data)
}

func TestGetDashboardRendersView(t *testing.T) {
	d := &fakeDashboard{state: dashboard.State{
		SearchQuery:   "Paris",
		Load:          dashboard.LoadState{Phase: dashboard.PhaseError, Message: "city not found"},
		Authorization: location.Denied,
	}}

	resp, body := do(t, newApp(d, nil), http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v map[string]any
	assert.NoError(t, json.Unmarshal([]byte(body), &v))
	assert.Equal(t, "Paris", v["searchQuery"])
	assert.Equal(t, false, v["isLoading"])
	assert.Equal(t, "city not found", v["errorMessage"])
	assert.Equal(t, "denied", v["authorizationState"])
	assert.Equal(t, []any{}, v["history"])
	assert.Nil(t, v["weather"])
}

func TestSetQueryRequiresField(t *testing.T) {
	d := &fakeDashboard{}
	app := newApp(d, nil)

	resp, _ := do(t, app, http.MethodPut, "/api/v1/dashboard/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/dashboard/query", `{"query":"Oslo"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Oslo", d.State().SearchQuery)
}

func TestSearch(t *testing.T) {
	d := &fakeDashboard{}
	app := newApp(d, nil)

	// blank query is a no-op
	resp, _ := do(t, app, http.MethodPost, "/api/v1/dashboard/search", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 0, d.searches)

	resp, body := do(t, app, http.MethodPost, "/api/v1/dashboard/search", `{"query":"Berlin"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, d.searches)
	assert.True(t, strings.Contains(body, `"isLoading":true`))

	// without a body the held query is used
	resp, _ = do(t, app, http.MethodPost, "/api/v1/dashboard/search", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 2, d.searches)
}

func TestUseCurrentLocationAndRefresh(t *testing.T) {
	d := &fakeDashboard{}
	app := newApp(d, nil)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/dashboard/location", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, d.located)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/dashboard/refresh", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	d.refresh = true
	resp, _ = do(t, app, http.MethodPost, "/api/v1/dashboard/refresh", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestEventsStreamsStates(t *testing.T) {
	d := &fakeDashboard{stream: []dashboard.State{
		{SearchQuery: "a"},
		{SearchQuery: "a", Load: dashboard.LoadState{Phase: dashboard.PhaseLoading}},
	}}

	resp, body := do(t, newApp(d, nil), http.MethodGet, "/api/v1/dashboard/events", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	assert.Len(t, frames, 2)
	assert.True(t, strings.HasPrefix(frames[0], "event: state\ndata: {"))
	assert.True(t, strings.Contains(frames[1], `"isLoading":true`))
}

func TestDeviceHooks(t *testing.T) {
	dev := location.NewManualDevice(location.NotDetermined, nil)
	tr := location.NewTracker(dev, nil)
	app := newApp(&fakeDashboard{}, location.NewHooks(dev, tr))

	resp, _ := do(t, app, http.MethodPut, "/api/v1/device/authorization", `{"state":"sometimes"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/device/location", `{"lat":91,"lon":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/device/location", `{"lon":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/device/location", `{"lat":0,"lon":0}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := do(t, app, http.MethodPut, "/api/v1/device/authorization", `{"state":"allowed"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"authorizationState":"allowed"}`, body)
	assert.Equal(t, location.Allowed, tr.State())

	tr.Wait()
	assert.Equal(t, location.Event{Kind: location.AuthorizationChanged, State: location.Allowed}, <-tr.Events())
	assert.Equal(t, location.Event{Kind: location.LocationUpdated, Coordinate: weather.Coordinate{}}, <-tr.Events())
}

type brokenConn struct{}

func (brokenConn) Write(p []byte) (int, error) { return 0, errors.New("connection reset") }

func TestStreamEndsWhenIdleClientIsGone(t *testing.T) {
	states := make(chan dashboard.State)
	heartbeat := make(chan time.Time, 1)
	heartbeat <- time.Now()

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamStates(bufio.NewWriter(brokenConn{}), states, heartbeat)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream kept running for a disconnected client")
	}
}

func TestStreamWritesHeartbeatComments(t *testing.T) {
	var buf bytes.Buffer
	states := make(chan dashboard.State)
	heartbeat := make(chan time.Time)

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamStates(bufio.NewWriter(&buf), states, heartbeat)
	}()

	heartbeat <- time.Now()
	states <- dashboard.State{SearchQuery: "Lima"}
	close(states)
	<-done

	frames := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	assert.Len(t, frames, 2)
	assert.Equal(t, ": ping", frames[0])
	assert.True(t, strings.Contains(frames[1], `"searchQuery":"Lima"`))
}
