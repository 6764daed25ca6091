package gpio

// Line is the part of a requested GPIO line an Output drives.
// *gpiocdev.Line satisfies it.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Output drives one line from a switch's requested state.
type Output struct {
	name   string
	line   Line
	logger Logger
}

// NewOutput wraps line as the handler for the switch name.
func NewOutput(name string, line Line, logger Logger) *Output {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Output{name: name, line: line, logger: logger}
}

// HandleState implements entity.StateHandler.
func (o *Output) HandleState(on bool) {
	value := 0
	if on {
		value = 1
	}
	if err := o.line.SetValue(value); err != nil {
		o.logger.Error("gpio output write failed", "switch", o.name, "value", value, "error", err)
		return
	}
	o.logger.Debug("gpio output set", "switch", o.name, "value", value)
}

// Close releases the line.
func (o *Output) Close() error {
	return o.line.Close()
}
