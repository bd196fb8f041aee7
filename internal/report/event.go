package report

import "broker/internal/message"

// Event selects the kind of execution report to build.
type Event uint8

const (
	EventNew Event = iota + 1
	EventPartialFill
	EventFill
	EventReject
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventNew:
		return "New"
	case EventPartialFill:
		return "PartialFill"
	case EventFill:
		return "Fill"
	case EventReject:
		return "Reject"
	case EventCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// Types returns the exec type and order status carried by reports of this event.
func (e Event) Types() (message.ExecType, message.OrdStatus) {
	switch e {
	case EventNew:
		return message.ExecTypeNew, message.OrdStatusNew
	case EventPartialFill:
		return message.ExecTypeTrade, message.OrdStatusPartiallyFilled
	case EventFill:
		return message.ExecTypeTrade, message.OrdStatusFilled
	case EventReject:
		return message.ExecTypeRejected, message.OrdStatusRejected
	case EventCancel:
		return message.ExecTypeCanceled, message.OrdStatusCanceled
	default:
		return "", ""
	}
}

// EventForStatus returns the event that reports an order entering status.
func EventForStatus(status message.OrdStatus) (Event, bool) {
	switch status {
	case message.OrdStatusNew:
		return EventNew, true
	case message.OrdStatusPartiallyFilled:
		return EventPartialFill, true
	case message.OrdStatusFilled:
		return EventFill, true
	case message.OrdStatusRejected:
		return EventReject, true
	case message.OrdStatusCanceled:
		return EventCancel, true
	default:
		return 0, false
	}
}
