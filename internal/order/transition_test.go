package order

import (
	"testing"

	"broker/internal/message"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		desc     string
		from, to message.OrdStatus
		expected bool
	}{
		{"new to partially filled", message.OrdStatusNew, message.OrdStatusPartiallyFilled, true},
		{"new to filled", message.OrdStatusNew, message.OrdStatusFilled, true},
		{"new to rejected", message.OrdStatusNew, message.OrdStatusRejected, true},
		{"new to canceled", message.OrdStatusNew, message.OrdStatusCanceled, true},
		{"partially filled again", message.OrdStatusPartiallyFilled, message.OrdStatusPartiallyFilled, true},
		{"partially filled to filled", message.OrdStatusPartiallyFilled, message.OrdStatusFilled, true},
		{"partially filled to canceled", message.OrdStatusPartiallyFilled, message.OrdStatusCanceled, true},
		{"partially filled to rejected", message.OrdStatusPartiallyFilled, message.OrdStatusRejected, false},
		{"partially filled back to new", message.OrdStatusPartiallyFilled, message.OrdStatusNew, false},
		{"filled to canceled", message.OrdStatusFilled, message.OrdStatusCanceled, false},
		{"canceled to filled", message.OrdStatusCanceled, message.OrdStatusFilled, false},
		{"rejected to new", message.OrdStatusRejected, message.OrdStatusNew, false},
		{"done for day to filled", message.OrdStatusDoneForDay, message.OrdStatusFilled, false},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanTransition(tc.from, tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []message.OrdStatus{
		message.OrdStatusFilled,
		message.OrdStatusRejected,
		message.OrdStatusCanceled,
		message.OrdStatusDoneForDay,
	}
	for _, s := range terminal {
		assert.Truef(t, IsTerminal(s), "%s should be terminal", s)
	}
	assert.False(t, IsTerminal(message.OrdStatusNew))
	assert.False(t, IsTerminal(message.OrdStatusPartiallyFilled))
}
