package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/hastate"
	"github.com/nerrad567/seeed-ha-core/internal/identity"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
	"github.com/nerrad567/seeed-ha-core/internal/journal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HistoryReader reads journaled entity changes. *journal.Journal satisfies it.
type HistoryReader interface {
	History(ctx context.Context, entityID string, limit int) ([]journal.Entry, error)
}

// DeviceInfo is the identity reported on /info and the status page.
type DeviceInfo struct {
	ID      string
	Name    string
	Model   string
	Version string
	IP      string
	MAC     string
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	HTTP     config.HTTPConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *entity.Registry
	HAStates *hastate.Store
	Commands CommandDispatcher
	Device   DeviceInfo

	// Optional.
	History HistoryReader
	Signal  identity.SignalReader
}

// Server runs the HTTP and WebSocket listeners.
type Server struct {
	cfg      config.HTTPConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	registry *entity.Registry
	states   *hastate.Store
	history  HistoryReader
	signal   identity.SignalReader
	device   DeviceInfo

	hub    *Hub
	engine *Engine

	httpServer *http.Server
	wsServer   *http.Server
	startTime  time.Time
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies and registers
// its sync engine as a registry listener.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry, state store, dispatcher)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("entity registry is required")
	}
	if deps.HAStates == nil {
		return nil, fmt.Errorf("ha state store is required")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}

	signal := deps.Signal
	if signal == nil {
		signal = identity.SignalFunc(func() int { return 0 })
	}

	hub := NewHub(deps.WS, deps.Logger)
	s := &Server{
		cfg:       deps.HTTP,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		registry:  deps.Registry,
		states:    deps.HAStates,
		history:   deps.History,
		signal:    signal,
		device:    deps.Device,
		hub:       hub,
		engine:    NewEngine(hub, deps.Registry, deps.HAStates, deps.Commands, deps.Logger),
		startTime: time.Now(),
	}
	deps.Registry.AddListener(s.engine)

	return s, nil
}

// Engine returns the sync engine.
func (s *Server) Engine() *Engine { return s.engine }

// Start begins listening for HTTP and WebSocket connections.
//
// The hub and heartbeat goroutines keep running after ctx is cancelled;
// only Close stops them, so the sleep notice can still reach open clients.
//
// Parameters:
//   - ctx: Parent context; its values are inherited, its cancellation is not
//
// Returns:
//   - error: Currently always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	go s.hub.Run(srvCtx)
	go s.engine.Run(srvCtx)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}
	// No read/write timeouts on the WebSocket listener: connections are
	// long-lived and use their own deadlines.
	s.wsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.wsCfg.Host, s.wsCfg.Port),
		Handler:           s.buildWSRouter(),
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
	}

	s.serve("http", s.httpServer)
	s.serve("websocket", s.wsServer)

	return nil
}

func (s *Server) serve(name string, srv *http.Server) {
	go func() {
		s.logger.Info("listener starting", "listener", name, "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("listener error", "listener", name, "error", err)
		}
	}()
}

// Close sends the sleep notice to every open sync client, disconnects
// them and shuts down both listeners.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}

	s.engine.NotifySleep()
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	var errs []error
	for _, srv := range []*http.Server{s.wsServer, s.httpServer} {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.httpServer == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
