package session

import "broker/internal/message"

// ID is an opaque handle for an established counterparty session.
// The engine only compares and passes it through.
type ID string

// Sender hands an outbound application message to the transport.
// Delivery guarantees belong to the transport.
type Sender interface {
	Send(msg message.Typed, id ID) error
}

// Application is implemented by the engine and invoked by the transport.
type Application interface {
	OnSessionUp(id ID)
	OnSessionDown(id ID)
	OnInboundMessage(msg message.Message, id ID)
}

// Direction of an application message relative to the engine.
type Direction uint8

const (
	DirectionInbound Direction = iota + 1
	DirectionOutbound
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "IN"
	case DirectionOutbound:
		return "OUT"
	default:
		return "?"
	}
}

// Tap observes every application message crossing the transport boundary.
type Tap interface {
	Record(dir Direction, id ID, msg message.Typed)
}

// Sink receives outbound messages on the counterparty side of a session.
type Sink func(msg message.Typed)
