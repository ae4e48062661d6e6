package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrialCursorAdvanceAndWrap(t *testing.T) {
	c := NewTrialCursor([]string{"1478", "2580", "9634"})

	assert.Equal(t, "1478", c.Target())
	assert.Equal(t, 1, c.Trial())

	c.Advance()
	assert.Equal(t, "2580", c.Target())
	assert.Equal(t, 2, c.Trial())

	c.Advance()
	c.Advance() // wraps back to the first PIN
	assert.Equal(t, "1478", c.Target())
	assert.Equal(t, 4, c.Trial(), "trial number keeps growing across wraps")
}

func TestTrialCursorSingleTarget(t *testing.T) {
	c := NewTrialCursor([]string{"0000"})
	c.Advance()
	assert.Equal(t, "0000", c.Target())
	assert.Equal(t, 2, c.Trial())
}
