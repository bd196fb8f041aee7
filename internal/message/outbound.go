package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionReport describes an order's current status and fill progress.
type ExecutionReport struct {
	OrderID      string           `json:"orderId"`
	ClOrdID      string           `json:"clOrdId"`
	OrigClOrdID  string           `json:"origClOrdId,omitempty"`
	ExecID       string           `json:"execId"`
	ExecType     ExecType         `json:"execType"`
	OrdStatus    OrdStatus        `json:"ordStatus"`
	Symbol       string           `json:"symbol"`
	Side         Side             `json:"side"`
	OrdType      OrdType          `json:"ordType"`
	OrderQty     decimal.Decimal  `json:"orderQty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	LastQty      *decimal.Decimal `json:"lastQty,omitempty"`
	LastPx       *decimal.Decimal `json:"lastPx,omitempty"`
	CumQty       decimal.Decimal  `json:"cumQty"`
	LeavesQty    decimal.Decimal  `json:"leavesQty"`
	AvgPx        decimal.Decimal  `json:"avgPx"`
	TransactTime time.Time        `json:"transactTime"`
	Text         string           `json:"text,omitempty"`
}

// BusinessMessageReject refuses an application message that could not be processed.
type BusinessMessageReject struct {
	RefMsgType           MsgType              `json:"refMsgType"`
	BusinessRejectReason BusinessRejectReason `json:"businessRejectReason"`
	Text                 string               `json:"text"`
}

// OrderCancelReject refuses a cancel request.
type OrderCancelReject struct {
	OrderID          string           `json:"orderId"`
	ClOrdID          string           `json:"clOrdId"`
	OrigClOrdID      string           `json:"origClOrdId"`
	OrdStatus        OrdStatus        `json:"ordStatus"`
	CxlRejResponseTo CxlRejResponseTo `json:"cxlRejResponseTo"`
	CxlRejReason     CxlRejReason     `json:"cxlRejReason"`
	Text             string           `json:"text,omitempty"`
}

func (ExecutionReport) MsgType() MsgType       { return MsgTypeExecutionReport }
func (BusinessMessageReject) MsgType() MsgType { return MsgTypeBusinessMessageReject }
func (OrderCancelReject) MsgType() MsgType     { return MsgTypeOrderCancelReject }
