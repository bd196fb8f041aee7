package order

import "broker/internal/message"

// transitions lists the legal status moves. New is the only initial status.
var transitions = map[message.OrdStatus][]message.OrdStatus{
	message.OrdStatusNew: {
		message.OrdStatusPartiallyFilled,
		message.OrdStatusFilled,
		message.OrdStatusRejected,
		message.OrdStatusCanceled,
	},
	message.OrdStatusPartiallyFilled: {
		message.OrdStatusPartiallyFilled,
		message.OrdStatusFilled,
		message.OrdStatusCanceled,
	},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to message.OrdStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no operation may mutate an order in this status.
func IsTerminal(status message.OrdStatus) bool {
	switch status {
	case message.OrdStatusFilled, message.OrdStatusRejected, message.OrdStatusCanceled, message.OrdStatusDoneForDay:
		return true
	default:
		return false
	}
}
