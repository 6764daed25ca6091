package hastate

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultMaxEntities is the number of mirrored entities kept unless
// configured otherwise.
const DefaultMaxEntities = 16

// Attribute keys copied from a push into the State.
const (
	AttrFriendlyName = "friendly_name"
	AttrUnit         = "unit_of_measurement"
	AttrDeviceClass  = "device_class"
)

// Observer is told about every accepted push.
type Observer interface {
	HAStateChanged(entityID, state string, attributes map[string]any)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(entityID, state string, attributes map[string]any)

// HAStateChanged calls f.
func (f ObserverFunc) HAStateChanged(entityID, state string, attributes map[string]any) {
	f(entityID, state, attributes)
}

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store is a bounded map of mirrored Home Assistant states.
//
// All public methods are thread-safe. The observer is called after the
// store lock is released.
type Store struct {
	mu       sync.RWMutex
	max      int
	states   map[string]*State
	observer Observer
	logger   Logger
	now      func() time.Time
}

// NewStore creates a store holding at most maxEntities entries.
// Values below 1 fall back to DefaultMaxEntities.
func NewStore(maxEntities int) *Store {
	if maxEntities < 1 {
		maxEntities = DefaultMaxEntities
	}
	return &Store{
		max:    maxEntities,
		states: make(map[string]*State, maxEntities),
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetObserver registers the observer for accepted pushes.
func (s *Store) SetObserver(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Max returns the capacity of the store.
func (s *Store) Max() int { return s.max }

// Upsert stores a pushed state.
//
// Attributes friendly_name, unit_of_measurement and device_class overwrite
// the stored values only when present in the push.
//
// Returns:
//   - error: ErrMissingEntityID for an empty id, ErrStoreFull for a new id at capacity
func (s *Store) Upsert(entityID, state string, attributes map[string]any) error {
	if entityID == "" {
		return ErrMissingEntityID
	}

	s.mu.Lock()
	st, ok := s.states[entityID]
	if !ok {
		if len(s.states) >= s.max {
			s.mu.Unlock()
			s.logger.Warn("ha state rejected, store full", "entity_id", entityID, "max", s.max)
			return fmt.Errorf("%w: %d entities", ErrStoreFull, s.max)
		}
		st = &State{EntityID: entityID}
		s.states[entityID] = st
		s.logger.Debug("ha state created", "entity_id", entityID)
	}

	st.State = state
	st.hasValue = true
	st.LastUpdate = s.now()
	if v, ok := attributes[AttrFriendlyName]; ok {
		st.FriendlyName = attrString(v)
	}
	if v, ok := attributes[AttrUnit]; ok {
		st.Unit = attrString(v)
	}
	if v, ok := attributes[AttrDeviceClass]; ok {
		st.DeviceClass = attrString(v)
	}
	observer := s.observer
	s.mu.Unlock()

	s.logger.Debug("ha state received", "entity_id", entityID, "state", state)

	if observer != nil {
		observer.HAStateChanged(entityID, state, attributes)
	}
	return nil
}

// Get returns a copy of the state for entityID.
func (s *Store) Get(entityID string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[entityID]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// All returns copies of all states ordered by entity id.
func (s *Store) All() []State {
	s.mu.RLock()
	out := make([]State, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, *st)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// Len returns the number of mirrored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Clear drops every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	n := len(s.states)
	s.states = make(map[string]*State, s.max)
	s.mu.Unlock()

	s.logger.Info("ha states cleared", "count", n)
	return n
}

func attrString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
