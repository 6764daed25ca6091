package dispatch

import (
	"fmt"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

// SwitchFinder looks up switches by entity id. *entity.Registry satisfies it.
type SwitchFinder interface {
	Switch(id string) (*entity.Switch, bool)
}

// Logger defines the logging interface used by the Dispatcher.
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

// Dispatcher resolves commands and applies them to switches.
type Dispatcher struct {
	switches SwitchFinder
	logger   Logger
}

// New creates a Dispatcher over the given switches.
func New(switches SwitchFinder) *Dispatcher {
	return &Dispatcher{
		switches: switches,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Resolve computes the target state of a command without applying it.
//
// Decision order:
//  1. Action set: turn_on is true, turn_off is false, toggle inverts the
//     current switch state (false when the switch does not exist); any
//     other action is rejected.
//  2. State set: used as is.
//  3. Otherwise the command is rejected.
func (d *Dispatcher) Resolve(cmd Command) (bool, error) {
	if cmd.EntityID == "" {
		return false, ErrMissingEntityID
	}

	if cmd.Action != nil {
		switch *cmd.Action {
		case ActionTurnOn:
			return true, nil
		case ActionTurnOff:
			return false, nil
		case ActionToggle:
			if sw, ok := d.switches.Switch(cmd.EntityID); ok {
				return !sw.State(), nil
			}
			return false, nil
		default:
			return false, fmt.Errorf("%w: %q", ErrUnknownCommand, *cmd.Action)
		}
	}

	if cmd.State != nil {
		return *cmd.State, nil
	}

	return false, ErrMissingState
}

// Dispatch resolves cmd and applies it with HandleCommand.
//
// Rejected or unroutable commands are logged and returned as errors; the
// caller decides whether to surface them. Nothing is sent back to the
// controller for a failed command.
func (d *Dispatcher) Dispatch(cmd Command) error {
	target, err := d.Resolve(cmd)
	if err != nil {
		d.logger.Warn("command rejected", "entity_id", cmd.EntityID, "error", err)
		return err
	}

	sw, ok := d.switches.Switch(cmd.EntityID)
	if !ok {
		d.logger.Warn("command for unknown switch", "entity_id", cmd.EntityID)
		return fmt.Errorf("%w: %q", ErrSwitchNotFound, cmd.EntityID)
	}

	d.logger.Info("executing command", "entity_id", cmd.EntityID, "state", target)
	sw.HandleCommand(target)
	return nil
}
