package entity

import "sync"

// Switch is a controllable on/off entity.
//
// Local changes go through SetState or Toggle; controller commands go
// through HandleCommand. Both end in the same registry hook, so every
// transport sees the same change regardless of where it came from.
type Switch struct {
	id   string
	name string
	icon string

	mu      sync.RWMutex
	state   bool
	handler StateHandler

	owner *Registry
}

// ID returns the switch id.
func (sw *Switch) ID() string { return sw.id }

// Name returns the display name.
func (sw *Switch) Name() string { return sw.name }

// Icon returns the icon, possibly empty.
func (sw *Switch) Icon() string { return sw.icon }

// State returns the current state.
func (sw *Switch) State() bool {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.state
}

// SetHandler replaces the hardware handler. A nil handler disables it.
func (sw *Switch) SetHandler(h StateHandler) {
	sw.mu.Lock()
	sw.handler = h
	sw.mu.Unlock()
}

// SetState stores on and notifies the registry if the state changed.
// Setting the current state again is a no-op.
func (sw *Switch) SetState(on bool) {
	sw.mu.Lock()
	if sw.state == on {
		sw.mu.Unlock()
		return
	}
	sw.state = on
	sw.mu.Unlock()

	sw.notify()
}

// Toggle inverts the current state.
func (sw *Switch) Toggle() {
	sw.mu.Lock()
	on := !sw.state
	sw.state = on
	sw.mu.Unlock()

	sw.notify()
}

// HandleCommand applies a state requested by a controller.
//
// The state is stored first, then the handler runs, then the registry is
// notified unconditionally. The notification happens even when on equals
// the previous state so the controller always gets a confirmation.
func (sw *Switch) HandleCommand(on bool) {
	sw.mu.Lock()
	sw.state = on
	h := sw.handler
	sw.mu.Unlock()

	if h != nil {
		h.HandleState(on)
	}
	sw.notify()
}

// Snapshot returns a consistent copy of the switch.
func (sw *Switch) Snapshot() SwitchSnapshot {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return SwitchSnapshot{
		ID:    sw.id,
		Name:  sw.name,
		Icon:  sw.icon,
		State: sw.state,
	}
}

func (sw *Switch) notify() {
	if sw.owner != nil {
		sw.owner.switchChanged(sw)
	}
}
