// Package gpio binds switches and the reset button to Linux GPIO lines
// through the character device interface.
//
// Output lines implement entity.StateHandler so a switch command drives the
// line directly. The reset button is tracked by LongPress, a pure state
// machine that fires once per press held past its threshold.
package gpio
