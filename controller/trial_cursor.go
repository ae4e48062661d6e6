package controller

// TrialCursor walks the fixed ordered list of target PINs for one
// participant run. It advances only on a verified-correct entry and wraps
// modulo the list length; the trial number keeps growing across wraps.
//
// The cursor is plain state owned by the session controller — deliberately
// not a package-level singleton, so tests and multiple runs stay isolated.
type TrialCursor struct {
	pins  []string
	index int
	trial int
}

// NewTrialCursor starts at the first PIN, trial 1. pins must be non-empty
// (validated by config loading).
func NewTrialCursor(pins []string) *TrialCursor {
	return &TrialCursor{
		pins:  pins,
		trial: 1,
	}
}

// Target returns the PIN the participant is currently asked to enter.
func (c *TrialCursor) Target() string {
	return c.pins[c.index]
}

// Trial returns the current trial number (1-based, monotonically
// non-decreasing).
func (c *TrialCursor) Trial() int {
	return c.trial
}

// Advance moves to the next target PIN after a correct entry, wrapping at
// the end of the list.
func (c *TrialCursor) Advance() {
	c.index = (c.index + 1) % len(c.pins)
	c.trial++
}
