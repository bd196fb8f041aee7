package message

import "strings"

// MsgType identifies the business type of an application message.
type MsgType string

const (
	MsgTypeExecutionReport       MsgType = "8"
	MsgTypeOrderCancelReject     MsgType = "9"
	MsgTypeNewOrderSingle        MsgType = "D"
	MsgTypeOrderCancelRequest    MsgType = "F"
	MsgTypeBusinessMessageReject MsgType = "j"
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeExecutionReport:
		return "ExecutionReport"
	case MsgTypeOrderCancelReject:
		return "OrderCancelReject"
	case MsgTypeNewOrderSingle:
		return "NewOrderSingle"
	case MsgTypeOrderCancelRequest:
		return "OrderCancelRequest"
	case MsgTypeBusinessMessageReject:
		return "BusinessMessageReject"
	default:
		return "Unknown(" + string(t) + ")"
	}
}

// Tag is a protocol field number.
type Tag int

const (
	TagClOrdID     Tag = 11
	TagOrderQty    Tag = 38
	TagOrdType     Tag = 40
	TagOrigClOrdID Tag = 41
	TagPrice       Tag = 44
	TagSide        Tag = 54
	TagSymbol      Tag = 55
	TagText        Tag = 58
)

// Typed is implemented by every application message, inbound or outbound.
type Typed interface {
	MsgType() MsgType
}

// Field is the result of a single field lookup.
type Field struct {
	Value   string
	Present bool
}

// Message is an already-parsed inbound application message.
type Message struct {
	Type   MsgType        `json:"type"`
	Fields map[Tag]string `json:"fields"`
}

var _ Typed = Message{}

// New creates an empty message of the given type.
func New(t MsgType) Message {
	return Message{Type: t, Fields: make(map[Tag]string)}
}

// MsgType implements Typed.
func (m Message) MsgType() MsgType {
	return m.Type
}

// Set stores a field value and returns the message for chaining.
func (m Message) Set(tag Tag, value string) Message {
	if m.Fields == nil {
		m.Fields = make(map[Tag]string)
	}
	m.Fields[tag] = value
	return m
}

// Field looks up a field. The value is trimmed and a blank value counts as absent.
func (m Message) Field(tag Tag) Field {
	v, ok := m.Fields[tag]
	if !ok {
		return Field{}
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return Field{}
	}
	return Field{Value: v, Present: true}
}
