package api

import (
	"context"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

// dialSync serves srv's WebSocket router and connects a client to it.
func dialSync(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.buildWSRouter())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	//nolint:errcheck // test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func send(t *testing.T, ws *websocket.Conn, raw string) {
	t.Helper()
	if err := ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

// connect dials and consumes the initial discovery snapshot.
func connect(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ws := dialSync(t, srv)
	if msg := readMsg(t, ws); msg["type"] != MsgTypeDiscovery {
		t.Fatalf("first message type = %v, want discovery", msg["type"])
	}
	return ws
}

// roundTrip sends a ping and waits for its pong, so every message sent
// before it has been handled.
func roundTrip(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	send(t, ws, `{"type":"ping","timestamp":"sync"}`)
	for {
		msg := readMsg(t, ws)
		if msg["type"] == MsgTypePong && msg["timestamp"] == "sync" {
			return
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSync_DiscoveryFirst(t *testing.T) {
	srv, reg := testServer(t, nil)
	temp, _ := reg.AddSensor("temperature", "Temperature", entity.WithUnit("°C"))
	temp.SetValue(21.5)
	if _, err := reg.AddSwitch("relay", "Relay", entity.WithInitialState(true)); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}

	ws := dialSync(t, srv)
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypeDiscovery {
		t.Fatalf("type = %v, want discovery", msg["type"])
	}
	entities, ok := msg["entities"].([]any)
	if !ok || len(entities) != 2 {
		t.Fatalf("entities = %v", msg["entities"])
	}
	sensor := entities[0].(map[string]any)
	if sensor["state"] != 21.5 {
		t.Errorf("sensor state = %v, want 21.5", sensor["state"])
	}
	sw := entities[1].(map[string]any)
	if sw["state"] != true {
		t.Errorf("switch state = %v, want true", sw["state"])
	}

	if !srv.engine.Connected() {
		t.Error("Connected() = false after connect")
	}
}

func TestSync_DiscoveryWithNaNSensor(t *testing.T) {
	srv, reg := testServer(t, nil)
	temp, _ := reg.AddSensor("temperature", "Temperature")
	temp.SetValue(math.NaN())
	if _, err := reg.AddSwitch("relay", "Relay"); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}

	ws := connect(t, srv)
	send(t, ws, `{"type":"discovery"}`)
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypeDiscovery {
		t.Fatalf("type = %v, want discovery", msg["type"])
	}
	if entities, ok := msg["entities"].([]any); !ok || len(entities) != 2 {
		t.Errorf("entities = %v, want 2", msg["entities"])
	}
}

func TestSync_PingPong(t *testing.T) {
	srv, _ := testServer(t, nil)
	ws := connect(t, srv)

	send(t, ws, `{"type":"ping","timestamp":1234567}`)
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypePong || msg["timestamp"] != float64(1234567) {
		t.Errorf("pong = %v", msg)
	}

	send(t, ws, `{"type":"ping"}`)
	msg = readMsg(t, ws)
	if ts, ok := msg["timestamp"]; msg["type"] != MsgTypePong || !ok || ts != nil {
		t.Errorf("pong without timestamp = %v", msg)
	}
}

func TestSync_DiscoveryRequest(t *testing.T) {
	srv, reg := testServer(t, nil)
	ws := connect(t, srv)

	if _, err := reg.AddSwitch("late", "Late"); err != nil {
		t.Fatalf("AddSwitch: %v", err)
	}
	send(t, ws, `{"type":"discovery"}`)
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypeDiscovery {
		t.Fatalf("type = %v, want discovery", msg["type"])
	}
	if entities := msg["entities"].([]any); len(entities) != 1 {
		t.Errorf("entities = %v, want the late switch", entities)
	}
}

func TestSync_Command(t *testing.T) {
	srv, reg := testServer(t, nil)
	relay, _ := reg.AddSwitch("relay", "Relay")
	ws := connect(t, srv)

	tests := []struct {
		name  string
		raw   string
		state bool
	}{
		{"turn_on", `{"type":"command","entity_id":"relay","command":"turn_on"}`, true},
		{"repeat confirms", `{"type":"command","entity_id":"relay","state":true}`, true},
		{"toggle", `{"type":"command","entity_id":"relay","command":"toggle"}`, false},
		{"command wins over state", `{"type":"command","entity_id":"relay","command":"turn_on","state":false}`, true},
		{"turn_off", `{"type":"command","entity_id":"relay","command":"turn_off"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, ws, tt.raw)
			msg := readMsg(t, ws)
			if msg["type"] != MsgTypeState || msg["entity_id"] != "relay" || msg["state"] != tt.state {
				t.Errorf("push = %v, want state %v", msg, tt.state)
			}
			if relay.State() != tt.state {
				t.Errorf("relay.State() = %v, want %v", relay.State(), tt.state)
			}
		})
	}
}

func TestSync_RejectedMessagesProduceNothing(t *testing.T) {
	srv, reg := testServer(t, nil)
	relay, _ := reg.AddSwitch("relay", "Relay")
	ws := connect(t, srv)

	for _, raw := range []string{
		`not json`,
		`{"entity_id":"relay"}`,
		`{"type":"bogus"}`,
		`{"type":"command","entity_id":"relay","command":"blink"}`,
		`{"type":"command","entity_id":"relay"}`,
		`{"type":"command","command":"turn_on"}`,
		`{"type":"command","entity_id":"ghost","command":"turn_on"}`,
		`{"type":"command","entity_id":"relay","state":"on"}`,
	} {
		send(t, ws, raw)
	}

	// The next message must be the pong, not a state push.
	send(t, ws, `{"type":"ping","timestamp":1}`)
	if msg := readMsg(t, ws); msg["type"] != MsgTypePong {
		t.Errorf("message = %v, want pong", msg)
	}
	if relay.State() {
		t.Error("relay switched by a rejected command")
	}
}

func TestSync_HAState(t *testing.T) {
	srv, _ := testServer(t, nil)
	ws := connect(t, srv)

	var (
		mu       sync.Mutex
		observed []string
	)
	srv.states.SetObserver(observerFunc(func(id, state string, _ map[string]any) {
		mu.Lock()
		observed = append(observed, id+"="+state)
		mu.Unlock()
	}))

	send(t, ws, `{"type":"ha_state","entity_id":"sensor.outdoor","state":"12.5","attributes":{"friendly_name":"Outdoor","unit_of_measurement":"°C"}}`)
	send(t, ws, `{"type":"ha_state","entity_id":"light.porch","state":true}`)
	send(t, ws, `{"type":"ha_state","entity_id":"sensor.third","state":3}`)
	send(t, ws, `{"type":"ha_state","state":"x"}`)
	roundTrip(t, ws)

	if got := srv.states.Len(); got != 2 {
		t.Fatalf("states.Len() = %d, want 2 (capacity)", got)
	}
	outdoor, ok := srv.states.Get("sensor.outdoor")
	if !ok || outdoor.Float() != 12.5 || outdoor.FriendlyName != "Outdoor" || outdoor.Unit != "°C" {
		t.Errorf("sensor.outdoor = %+v", outdoor)
	}
	porch, ok := srv.states.Get("light.porch")
	if !ok || porch.State != "true" || !porch.Bool() {
		t.Errorf("light.porch = %+v", porch)
	}
	if _, ok := srv.states.Get("sensor.third"); ok {
		t.Error("entry beyond capacity was stored")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 2 || observed[0] != "sensor.outdoor=12.5" || observed[1] != "light.porch=true" {
		t.Errorf("observed = %v", observed)
	}

	send(t, ws, `{"type":"ha_state_clear"}`)
	roundTrip(t, ws)
	if got := srv.states.Len(); got != 0 {
		t.Errorf("states.Len() after clear = %d, want 0", got)
	}
}

type observerFunc func(entityID, state string, attributes map[string]any)

func (f observerFunc) HAStateChanged(entityID, state string, attributes map[string]any) {
	f(entityID, state, attributes)
}

func TestSync_SensorPush(t *testing.T) {
	srv, reg := testServer(t, nil)
	temp, _ := reg.AddSensor("temperature", "Temperature", entity.WithDeviceClass("temperature"), entity.WithUnit("°C"))
	ws := connect(t, srv)

	// Same value twice still produces two pushes.
	temp.SetValue(20)
	temp.SetValue(20)
	for i := 0; i < 2; i++ {
		msg := readMsg(t, ws)
		if msg["type"] != MsgTypeState || msg["entity_id"] != "temperature" || msg["state"] != float64(20) {
			t.Fatalf("push %d = %v", i, msg)
		}
		attrs, ok := msg["attributes"].(map[string]any)
		if !ok || attrs["unit_of_measurement"] != "°C" || attrs["device_class"] != "temperature" {
			t.Errorf("push %d attributes = %v", i, msg["attributes"])
		}
	}
}

func TestSync_NoPushWhileDisconnected(t *testing.T) {
	srv, reg := testServer(t, nil)
	temp, _ := reg.AddSensor("temperature", "Temperature")

	if srv.engine.Connected() {
		t.Fatal("Connected() = true with no clients")
	}
	temp.SetValue(1)

	// Nothing was queued: a new client sees discovery, then the pong.
	ws := connect(t, srv)
	send(t, ws, `{"type":"ping","timestamp":2}`)
	if msg := readMsg(t, ws); msg["type"] != MsgTypePong {
		t.Errorf("message = %v, want pong", msg)
	}
}

func TestSync_DisconnectClearsFlag(t *testing.T) {
	srv, _ := testServer(t, nil)
	ws := connect(t, srv)

	ws.Close()
	waitFor(t, func() bool { return !srv.engine.Connected() })
}

func TestSync_HeartbeatAndSleep(t *testing.T) {
	srv, _ := testServer(t, nil)
	ws := connect(t, srv)

	start := srv.engine.start
	srv.engine.now = func() time.Time { return start.Add(90 * time.Second) }

	srv.engine.heartbeat()
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypePing || msg["timestamp"] != float64(90000) {
		t.Errorf("heartbeat = %v", msg)
	}

	srv.engine.NotifySleep()
	msg = readMsg(t, ws)
	if msg["type"] != MsgTypeSleep || msg["timestamp"] != float64(90000) {
		t.Errorf("sleep = %v", msg)
	}
}

func TestServer_CloseSendsSleepAfterParentCancelled(t *testing.T) {
	srv, _ := testServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ws := connect(t, srv)

	// Shutdown order in the daemon: the signal context ends first, then the
	// deferred Close runs.
	cancel()
	time.Sleep(50 * time.Millisecond)
	if n := srv.hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount() after parent cancel = %d, want 1", n)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	msg := readMsg(t, ws)
	if msg["type"] != MsgTypeSleep {
		t.Errorf("message after Close = %v, want sleep", msg)
	}
	waitFor(t, func() bool { return srv.hub.ClientCount() == 0 })
}

func TestSync_BroadcastToAllClients(t *testing.T) {
	srv, reg := testServer(t, nil)
	relay, _ := reg.AddSwitch("relay", "Relay")
	a := connect(t, srv)
	b := connect(t, srv)

	relay.SetState(true)
	for _, ws := range []*websocket.Conn{a, b} {
		msg := readMsg(t, ws)
		if msg["type"] != MsgTypeState || msg["state"] != true {
			t.Errorf("push = %v", msg)
		}
	}
}
