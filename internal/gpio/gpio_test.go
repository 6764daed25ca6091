package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpiod "github.com/warthog618/go-gpiocdev"
)

func TestLongPress(t *testing.T) {
	t0 := time.Unix(1000, 0)
	lp := LongPress{Threshold: 6 * time.Second}

	assert.False(t, lp.Update(true, t0))
	assert.False(t, lp.Update(true, t0.Add(5999*time.Millisecond)))
	assert.Equal(t, 5999*time.Millisecond, lp.Held(t0.Add(5999*time.Millisecond)))

	assert.True(t, lp.Update(true, t0.Add(6*time.Second)), "fires at threshold")
	assert.False(t, lp.Update(true, t0.Add(7*time.Second)), "fires once per press")
	assert.False(t, lp.Update(true, t0.Add(60*time.Second)))

	assert.False(t, lp.Update(false, t0.Add(61*time.Second)))
	assert.Zero(t, lp.Held(t0.Add(61*time.Second)))

	t1 := t0.Add(100 * time.Second)
	assert.False(t, lp.Update(true, t1))
	assert.True(t, lp.Update(true, t1.Add(6*time.Second)), "re-armed after release")
}

func TestLongPress_ShortPressDoesNotFire(t *testing.T) {
	t0 := time.Unix(0, 0)
	var lp LongPress

	lp.Update(true, t0)
	lp.Update(false, t0.Add(3*time.Second))
	assert.False(t, lp.Update(true, t0.Add(4*time.Second)))
	assert.False(t, lp.Update(true, t0.Add(9*time.Second)), "hold restarts on each press")
	assert.True(t, lp.Update(true, t0.Add(10*time.Second)))
}

type fakeLine struct {
	values []int
	err    error
	closed bool
}

func (l *fakeLine) SetValue(v int) error {
	if l.err != nil {
		return l.err
	}
	l.values = append(l.values, v)
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func TestOutput_HandleState(t *testing.T) {
	line := &fakeLine{}
	out := NewOutput("relay", line, nil)

	out.HandleState(true)
	out.HandleState(false)
	out.HandleState(true)
	assert.Equal(t, []int{1, 0, 1}, line.values)

	require.NoError(t, out.Close())
	assert.True(t, line.closed)
}

func TestOutput_WriteErrorIsLogged(t *testing.T) {
	line := &fakeLine{err: errors.New("EBUSY")}
	out := NewOutput("relay", line, nil)

	assert.NotPanics(t, func() { out.HandleState(true) })
	assert.Empty(t, line.values)
}

func TestButton(t *testing.T) {
	calls := 0
	b := newButton(time.Second, func() { calls++ }, nil)
	t0 := time.Unix(0, 0)

	b.handleEvent(gpiod.LineEvent{Type: gpiod.LineEventFallingEdge})
	assert.False(t, b.poll(t0))
	assert.True(t, b.poll(t0.Add(time.Second)))
	assert.False(t, b.poll(t0.Add(2*time.Second)))
	assert.Equal(t, 1, calls)

	b.handleEvent(gpiod.LineEvent{Type: gpiod.LineEventRisingEdge})
	assert.False(t, b.poll(t0.Add(3*time.Second)))

	b.handleEvent(gpiod.LineEvent{Type: gpiod.LineEventFallingEdge})
	b.poll(t0.Add(4 * time.Second))
	b.poll(t0.Add(5 * time.Second))
	assert.Equal(t, 2, calls)
}

func TestController_Closed(t *testing.T) {
	c := &Controller{logger: noopLogger{}}

	_, err := c.Output("relay", 4, false)
	assert.ErrorIs(t, err, ErrChipClosed)

	_, err = c.Button(5, time.Second, nil)
	assert.ErrorIs(t, err, ErrChipClosed)

	_, err = c.Output("relay", -1, false)
	assert.ErrorIs(t, err, ErrInvalidOffset)

	assert.NoError(t, c.Close())
}
