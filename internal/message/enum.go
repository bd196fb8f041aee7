package message

// Side buy, sell
type Side string

const (
	SideBuy  Side = "1"
	SideSell Side = "2"
)

func (s Side) IsAvailable() bool {
	return s == SideBuy || s == SideSell
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unknown(" + string(s) + ")"
	}
}

// OrdType market, limit
type OrdType string

const (
	OrdTypeMarket OrdType = "1"
	OrdTypeLimit  OrdType = "2"
)

func (t OrdType) IsAvailable() bool {
	return t == OrdTypeMarket || t == OrdTypeLimit
}

func (t OrdType) String() string {
	switch t {
	case OrdTypeMarket:
		return "Market"
	case OrdTypeLimit:
		return "Limit"
	default:
		return "Unknown(" + string(t) + ")"
	}
}

// OrdStatus new, partially filled, filled, done for day, canceled, rejected
type OrdStatus string

const (
	OrdStatusNew             OrdStatus = "0"
	OrdStatusPartiallyFilled OrdStatus = "1"
	OrdStatusFilled          OrdStatus = "2"
	OrdStatusDoneForDay      OrdStatus = "3"
	OrdStatusCanceled        OrdStatus = "4"
	OrdStatusRejected        OrdStatus = "8"
)

func (s OrdStatus) String() string {
	switch s {
	case OrdStatusNew:
		return "New"
	case OrdStatusPartiallyFilled:
		return "PartiallyFilled"
	case OrdStatusFilled:
		return "Filled"
	case OrdStatusDoneForDay:
		return "DoneForDay"
	case OrdStatusCanceled:
		return "Canceled"
	case OrdStatusRejected:
		return "Rejected"
	default:
		return "Unknown(" + string(s) + ")"
	}
}

// ExecType new, trade, canceled, rejected
type ExecType string

const (
	ExecTypeNew      ExecType = "0"
	ExecTypeCanceled ExecType = "4"
	ExecTypeRejected ExecType = "8"
	ExecTypeTrade    ExecType = "F"
)

func (t ExecType) String() string {
	switch t {
	case ExecTypeNew:
		return "New"
	case ExecTypeCanceled:
		return "Canceled"
	case ExecTypeRejected:
		return "Rejected"
	case ExecTypeTrade:
		return "Trade"
	default:
		return "Unknown(" + string(t) + ")"
	}
}

// BusinessRejectReason categorizes a BusinessMessageReject.
type BusinessRejectReason int

const (
	BusinessRejectReasonOther                  BusinessRejectReason = 0
	BusinessRejectReasonUnsupportedMessageType BusinessRejectReason = 3
)

// CxlRejReason categorizes an OrderCancelReject.
type CxlRejReason int

const (
	CxlRejReasonTooLateToCancel CxlRejReason = 0
	CxlRejReasonUnknownOrder    CxlRejReason = 1
	CxlRejReasonOther           CxlRejReason = 99
)

// CxlRejResponseTo tells which request an OrderCancelReject answers.
type CxlRejResponseTo string

const CxlRejResponseToCancelRequest CxlRejResponseTo = "1"
