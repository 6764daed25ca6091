package gpio

import "time"

// DefaultLongPress is the hold time for the reset button.
const DefaultLongPress = 6000 * time.Millisecond

// LongPress detects a button held for at least Threshold.
//
// Feed it the sampled button level with Update. It reports true exactly once
// per press, at the first sample where the hold time reaches Threshold.
// Releasing re-arms it. The zero value uses DefaultLongPress.
type LongPress struct {
	Threshold time.Duration

	pressed   bool
	pressedAt time.Time
	fired     bool
}

// Update records the button level at now and reports whether the long press
// fired on this sample.
func (lp *LongPress) Update(pressed bool, now time.Time) bool {
	if !pressed {
		lp.pressed = false
		lp.fired = false
		return false
	}

	if !lp.pressed {
		lp.pressed = true
		lp.pressedAt = now
	}

	if lp.fired || now.Sub(lp.pressedAt) < lp.threshold() {
		return false
	}
	lp.fired = true
	return true
}

// Held returns how long the button has been held at now, or zero.
func (lp *LongPress) Held(now time.Time) time.Duration {
	if !lp.pressed {
		return 0
	}
	return now.Sub(lp.pressedAt)
}

func (lp *LongPress) threshold() time.Duration {
	if lp.Threshold <= 0 {
		return DefaultLongPress
	}
	return lp.Threshold
}
