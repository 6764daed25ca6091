package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/seeed-ha-core/internal/dispatch"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/hastate"
	"github.com/nerrad567/seeed-ha-core/internal/identity"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
	"github.com/nerrad567/seeed-ha-core/internal/journal"
)

var testDevice = DeviceInfo{
	ID:      "240AC4123456",
	Name:    "Kitchen Node",
	Model:   "Seeed Linux Gateway",
	Version: "1.2.0",
	IP:      "192.168.1.42",
	MAC:     "24:0A:C4:12:34:56",
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// testServer creates a Server around a fresh registry and a two-entry state store.
func testServer(t *testing.T, history HistoryReader) (*Server, *entity.Registry) {
	t.Helper()

	reg := entity.NewRegistry()
	srv, err := New(Deps{
		HTTP: config.HTTPConfig{Host: "127.0.0.1"},
		WS: config.WebSocketConfig{
			Path:              "/",
			MaxMessageSize:    8192,
			HeartbeatInterval: 30,
			PongTimeout:       10,
		},
		Logger:   testLogger(),
		Registry: reg,
		HAStates: hastate.NewStore(2),
		Commands: dispatch.New(reg),
		Device:   testDevice,
		History:  history,
		Signal:   identity.SignalFunc(func() int { return -61 }),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, reg
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiredDeps(t *testing.T) {
	reg := entity.NewRegistry()
	full := Deps{
		Logger:   testLogger(),
		Registry: reg,
		HAStates: hastate.NewStore(1),
		Commands: dispatch.New(reg),
	}

	tests := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"logger", func(d *Deps) { d.Logger = nil }},
		{"registry", func(d *Deps) { d.Registry = nil }},
		{"states", func(d *Deps) { d.HAStates = nil }},
		{"commands", func(d *Deps) { d.Commands = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			if _, err := New(deps); err == nil {
				t.Errorf("New() without %s succeeded, want error", tt.name)
			}
		})
	}

	if _, err := New(full); err != nil {
		t.Errorf("New() error = %v", err)
	}
	if got := reg.Stats().Listeners; got != 1 {
		t.Errorf("registry listeners = %d, want 1 (engine)", got)
	}
}

func TestHandleInfo(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := doGet(t, srv.buildRouter(), "/info")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var info InfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := InfoResponse{
		DeviceID: "240AC4123456",
		Name:     "Kitchen Node",
		Model:    "Seeed Linux Gateway",
		Version:  "1.2.0",
		IP:       "192.168.1.42",
		MAC:      "24:0A:C4:12:34:56",
		RSSI:     -61,
	}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, reg := testServer(t, nil)
	if _, err := reg.AddSensor("t", "T"); err != nil {
		t.Fatalf("AddSensor: %v", err)
	}

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doGet(t, srv.buildRouter(), path)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" || body["sensors"] != float64(1) {
			t.Errorf("GET %s body = %v", path, body)
		}
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer(t, nil)
	router := srv.buildRouter()

	rec := doGet(t, router, "/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}
}

func TestStatusPage(t *testing.T) {
	srv, reg := testServer(t, nil)
	temp, err := reg.AddSensor("temperature", "Temperature <probe>", entity.WithUnit("°C"), entity.WithPrecision(2))
	if err != nil {
		t.Fatalf("AddSensor: %v", err)
	}
	temp.SetValue(21.456)
	if _, err := reg.AddSensor("humidity", "Humidity"); err != nil {
		t.Fatalf("AddSensor: %v", err)
	}

	rec := doGet(t, srv.buildRouter(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Kitchen Node",
		"240AC4123456",
		"192.168.1.42",
		"Waiting",
		"Temperature &lt;probe&gt;",
		"21.46",
		"No switches",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("status page missing %q", want)
		}
	}
}

func TestHandleListEntities(t *testing.T) {
	srv, reg := testServer(t, nil)
	if _, err := reg.AddSensor("t", "T"); err != nil {
		t.Fatalf("AddSensor: %v", err)
	}
	if _, err := reg.AddSwitch("relay", "Relay"); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}

	rec := doGet(t, srv.buildRouter(), "/api/v1/entities")
	var body struct {
		Entities []DiscoveryEntity `json:"entities"`
		Count    int               `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || body.Entities[0].ID != "t" || body.Entities[1].Type != entity.KindSwitch {
		t.Errorf("entities = %+v", body)
	}
}

func TestHandleListHAStates(t *testing.T) {
	srv, _ := testServer(t, nil)
	if err := srv.states.Upsert("sensor.outdoor", "12.5", map[string]any{"unit_of_measurement": "°C"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec := doGet(t, srv.buildRouter(), "/api/v1/ha-states")
	var body struct {
		States []hastate.State `json:"states"`
		Count  int             `json:"count"`
		Max    int             `json:"max"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Max != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.States[0].EntityID != "sensor.outdoor" || body.States[0].Unit != "°C" {
		t.Errorf("states[0] = %+v", body.States[0])
	}
}

type fakeHistory struct {
	entries []journal.Entry
	err     error
	limit   int
}

func (f *fakeHistory) History(_ context.Context, _ string, limit int) ([]journal.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func TestHandleGetHistory(t *testing.T) {
	recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hist := &fakeHistory{entries: []journal.Entry{
		{ID: 2, EntityID: "relay", Kind: entity.KindSwitch, Value: 1, RecordedAt: recorded},
	}}
	srv, reg := testServer(t, hist)
	if _, err := reg.AddSwitch("relay", "Relay"); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}
	router := srv.buildRouter()

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantLimit int
	}{
		{"default limit", "/api/v1/history/relay", http.StatusOK, journal.DefaultLimit},
		{"explicit limit", "/api/v1/history/relay?limit=5", http.StatusOK, 5},
		{"clamped limit", "/api/v1/history/relay?limit=5000", http.StatusOK, journal.MaxLimit},
		{"invalid limit", "/api/v1/history/relay?limit=abc", http.StatusBadRequest, 0},
		{"negative limit", "/api/v1/history/relay?limit=-1", http.StatusBadRequest, 0},
		{"unknown entity", "/api/v1/history/nope", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist.limit = 0
			rec := doGet(t, router, tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if hist.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", hist.limit, tt.wantLimit)
			}
		})
	}

	rec := doGet(t, router, "/api/v1/history/relay")
	var body struct {
		EntityID string          `json:"entity_id"`
		History  []journal.Entry `json:"history"`
		Count    int             `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || !body.History[0].RecordedAt.Equal(recorded) || body.History[0].Kind != entity.KindSwitch {
		t.Errorf("body = %+v", body)
	}

	hist.err = errors.New("disk I/O error")
	if rec := doGet(t, router, "/api/v1/history/relay"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status on history error = %d, want 500", rec.Code)
	}
}

func TestHandleGetHistory_Unavailable(t *testing.T) {
	srv, reg := testServer(t, nil)
	if _, err := reg.AddSwitch("relay", "Relay"); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}

	rec := doGet(t, srv.buildRouter(), "/api/v1/history/relay")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/info", nil)
	req.Header.Set("Origin", "http://homeassistant.local:8123")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestHealthCheck_NotStarted(t *testing.T) {
	srv, _ := testServer(t, nil)
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start = nil, want error")
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	srv, _ := testServer(t, nil)
	h := srv.buildRouter()

	rec := doGet(t, h, "/health")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("X-Request-ID not assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestMiddleware_PanicBecomes500(t *testing.T) {
	srv, _ := testServer(t, nil)
	h := srv.withRequestID(srv.accessLog(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := doGet(t, h, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body Error
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeInternal)
	}
}

func TestMiddleware_Preflight(t *testing.T) {
	srv, _ := testServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/info", nil)
	req.Header.Set("Origin", "http://ha.local")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
