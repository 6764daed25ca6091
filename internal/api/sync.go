package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/seeed-ha-core/internal/dispatch"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/hastate"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
)

// CommandDispatcher applies switch commands. *dispatch.Dispatcher satisfies it.
type CommandDispatcher interface {
	Dispatch(cmd dispatch.Command) error
}

// Engine runs the JSON sync protocol with the Home Assistant integration.
//
// It pushes a discovery snapshot to every new connection before anything
// else, answers inbound messages, forwards entity changes while a client is
// connected, and broadcasts a heartbeat ping. Engine implements
// entity.Listener.
type Engine struct {
	hub      *Hub
	registry *entity.Registry
	states   *hastate.Store
	commands CommandDispatcher
	logger   *logging.Logger

	start    time.Time
	interval time.Duration
	now      func() time.Time
}

// NewEngine creates a sync engine on hub.
func NewEngine(hub *Hub, registry *entity.Registry, states *hastate.Store, commands CommandDispatcher, logger *logging.Logger) *Engine {
	return &Engine{
		hub:      hub,
		registry: registry,
		states:   states,
		commands: commands,
		logger:   logger,
		start:    time.Now(),
		interval: heartbeatInterval(hub.cfg),
		now:      time.Now,
	}
}

// Connected reports whether any controller is connected.
func (e *Engine) Connected() bool {
	return e.hub.ClientCount() > 0
}

// Uptime returns milliseconds since the engine was created. It is the
// timestamp carried by heartbeat and sleep messages.
func (e *Engine) Uptime() int64 {
	return e.now().Sub(e.start).Milliseconds()
}

// ServeHTTP upgrades the request and attaches the connection.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := e.hub.newClient(conn)

	// Queue discovery before the client becomes visible to broadcasts so it
	// is always the first message on a new connection.
	if data, err := encodeDiscovery(e.registry); err != nil {
		e.logger.Error("encoding discovery failed", "error", err)
	} else {
		client.send <- data
	}
	e.hub.Register(client)

	go client.writePump()
	go client.readPump(e.handleMessage)
}

// Run broadcasts the heartbeat until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.heartbeat()
		}
	}
}

func (e *Engine) heartbeat() {
	if !e.Connected() {
		return
	}
	data, err := encodeTimed(MsgTypePing, e.Uptime())
	if err != nil {
		e.logger.Error("encoding heartbeat failed", "error", err)
		return
	}
	e.hub.Broadcast(data)
}

// NotifySleep tells every connected controller the device is going down.
// The notice is written synchronously and is not retried.
func (e *Engine) NotifySleep() {
	if !e.Connected() {
		return
	}
	data, err := encodeTimed(MsgTypeSleep, e.Uptime())
	if err != nil {
		e.logger.Error("encoding sleep notice failed", "error", err)
		return
	}
	sent := e.hub.WriteNow(data)
	e.logger.Info("sleep notice sent", "clients", sent)
}

// SensorChanged implements entity.Listener.
func (e *Engine) SensorChanged(s *entity.Sensor) {
	if !e.Connected() {
		return
	}
	data, err := encodeSensorState(s.Snapshot())
	if err != nil {
		e.logger.Error("encoding sensor state failed", "entity_id", s.ID(), "error", err)
		return
	}
	e.hub.Broadcast(data)
	e.logger.Debug("sensor state sent", "entity_id", s.ID())
}

// SwitchChanged implements entity.Listener.
func (e *Engine) SwitchChanged(sw *entity.Switch) {
	if !e.Connected() {
		return
	}
	data, err := encodeSwitchState(sw.Snapshot())
	if err != nil {
		e.logger.Error("encoding switch state failed", "entity_id", sw.ID(), "error", err)
		return
	}
	e.hub.Broadcast(data)
	e.logger.Debug("switch state sent", "entity_id", sw.ID())
}

// handleMessage processes one inbound frame from c.
func (e *Engine) handleMessage(c *WSClient, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		e.logger.Warn("dropping malformed message", "client_id", c.id, "error", err)
		return
	}
	if env.Type == "" {
		e.logger.Warn("dropping message without type", "client_id", c.id)
		return
	}

	switch env.Type {
	case MsgTypePing:
		e.reply(c, func() ([]byte, error) { return encodePong(env.Timestamp) })
	case MsgTypeDiscovery:
		e.reply(c, func() ([]byte, error) { return encodeDiscovery(e.registry) })
	case MsgTypeCommand:
		e.handleCommand(data)
	case MsgTypeHAState:
		e.handleHAState(data)
	case MsgTypeHAStateClear:
		n := e.states.Clear()
		e.logger.Info("ha states cleared by controller", "count", n)
	default:
		e.logger.Debug("ignoring message type", "type", env.Type)
	}
}

func (e *Engine) reply(c *WSClient, encode func() ([]byte, error)) {
	data, err := encode()
	if err != nil {
		e.logger.Error("encoding reply failed", "client_id", c.id, "error", err)
		return
	}
	c.trySend(data)
}

func (e *Engine) handleCommand(data []byte) {
	cmd, err := dispatch.ParseCommand(data)
	if err != nil {
		e.logger.Warn("dropping malformed command", "error", err)
		return
	}
	// Dispatch logs rejected commands itself.
	if err := e.commands.Dispatch(cmd); err != nil && !isProtocolError(err) {
		e.logger.Error("command failed", "entity_id", cmd.EntityID, "error", err)
	}
}

func (e *Engine) handleHAState(data []byte) {
	var msg haStateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		e.logger.Warn("dropping malformed ha_state", "error", err)
		return
	}
	state, err := scalarString(msg.State)
	if err != nil {
		e.logger.Warn("dropping ha_state", "entity_id", msg.EntityID, "error", err)
		return
	}
	if err := e.states.Upsert(msg.EntityID, state, msg.Attributes); err != nil {
		e.logger.Warn("ha_state rejected", "entity_id", msg.EntityID, "error", err)
	}
}

func isProtocolError(err error) bool {
	return errors.Is(err, dispatch.ErrMissingEntityID) ||
		errors.Is(err, dispatch.ErrUnknownCommand) ||
		errors.Is(err, dispatch.ErrMissingState) ||
		errors.Is(err, dispatch.ErrSwitchNotFound) ||
		errors.Is(err, dispatch.ErrInvalidCommand)
}
