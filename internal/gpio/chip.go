package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// pollInterval is how often a held button is sampled.
const pollInterval = 50 * time.Millisecond

// Logger defines the logging interface used by the package.
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

// Controller owns a GPIO chip and every line requested from it.
type Controller struct {
	mu     sync.Mutex
	chip   *gpiod.Chip
	lines  []*gpiod.Line
	logger Logger
}

// Open opens the named chip, e.g. "gpiochip0".
func Open(chipName string) (*Controller, error) {
	chip, err := gpiod.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", chipName, err)
	}
	return &Controller{chip: chip, logger: noopLogger{}}, nil
}

// SetLogger sets the logger for the controller and lines it creates.
func (c *Controller) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Output requests offset as an output line driven to initial.
func (c *Controller) Output(name string, offset int, initial bool) (*Output, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	value := 0
	if initial {
		value = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chip == nil {
		return nil, ErrChipClosed
	}

	line, err := c.chip.RequestLine(offset, gpiod.AsOutput(value))
	if err != nil {
		return nil, fmt.Errorf("requesting output line %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)

	return NewOutput(name, line, c.logger), nil
}

// Button requests offset as an active-low input with pull-up and returns a
// Button that calls onLongPress once per press held for hold.
func (c *Controller) Button(offset int, hold time.Duration, onLongPress func()) (*Button, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chip == nil {
		return nil, ErrChipClosed
	}

	b := newButton(hold, onLongPress, c.logger)
	line, err := c.chip.RequestLine(offset,
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(b.handleEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("requesting button line %d: %w", offset, err)
	}
	c.lines = append(c.lines, line)

	// Seed the level in case the button is already held.
	if v, err := line.Value(); err == nil {
		b.pressed.Store(v == 0)
	}

	return b, nil
}

// Close releases every line and the chip.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.lines = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, err)
		}
		c.chip = nil
	}
	return errors.Join(errs...)
}

// Button tracks an active-low push button.
type Button struct {
	pressed atomic.Bool
	action  func()
	logger  Logger

	mu sync.Mutex
	lp LongPress
}

func newButton(hold time.Duration, action func(), logger Logger) *Button {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Button{action: action, logger: logger, lp: LongPress{Threshold: hold}}
}

func (b *Button) handleEvent(evt gpiod.LineEvent) {
	pressed := evt.Type == gpiod.LineEventFallingEdge
	if b.pressed.Swap(pressed) != pressed && pressed {
		b.logger.Info("reset button pressed", "hold", b.lp.threshold())
	}
}

// poll samples the level at now and runs the action if the long press fired.
func (b *Button) poll(now time.Time) bool {
	b.mu.Lock()
	fired := b.lp.Update(b.pressed.Load(), now)
	b.mu.Unlock()

	if fired {
		b.logger.Warn("reset button held", "hold", b.lp.threshold())
		if b.action != nil {
			b.action()
		}
	}
	return fired
}

// Run samples the button until ctx is cancelled.
func (b *Button) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.poll(now)
		}
	}
}
