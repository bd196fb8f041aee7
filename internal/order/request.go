package order

import (
	"strings"

	"broker/internal/message"

	"github.com/shopspring/decimal"
)

// Field names used in validation issues.
const (
	FieldClOrdID     = "cl_ord_id"
	FieldOrigClOrdID = "orig_cl_ord_id"
	FieldSymbol      = "symbol"
	FieldSide        = "side"
	FieldOrdType     = "ord_type"
	FieldPrice       = "price"
	FieldOrderQty    = "order_qty"
)

// Problem classifies a validation issue.
type Problem string

const (
	ProblemMissing     Problem = "missing"
	ProblemMalformed   Problem = "invalid"
	ProblemUnsupported Problem = "unsupported"
)

// Issue is one offending field of a request.
type Issue struct {
	Field   string
	Problem Problem
	Detail  string
}

func (i Issue) String() string {
	if i.Detail == "" {
		return string(i.Problem) + " " + i.Field
	}
	return string(i.Problem) + " " + i.Field + ": " + i.Detail
}

// ValidationError aggregates every issue found in one request.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// Has reports whether the error names the field.
func (e *ValidationError) Has(field string) bool {
	for _, issue := range e.Issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field string, problem Problem, detail string) {
	e.Issues = append(e.Issues, Issue{Field: field, Problem: problem, Detail: detail})
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// Request is an unvalidated new order request.
type Request struct {
	ClOrdID  message.Field
	Symbol   message.Field
	Side     message.Field
	OrdType  message.Field
	Price    message.Field
	OrderQty message.Field
}

// RequestFromMessage reads the new order fields of a message.
func RequestFromMessage(msg message.Message) Request {
	return Request{
		ClOrdID:  msg.Field(message.TagClOrdID),
		Symbol:   msg.Field(message.TagSymbol),
		Side:     msg.Field(message.TagSide),
		OrdType:  msg.Field(message.TagOrdType),
		Price:    msg.Field(message.TagPrice),
		OrderQty: msg.Field(message.TagOrderQty),
	}
}

// Params is a validated new order request.
type Params struct {
	ClOrdID  string
	Symbol   string
	Side     message.Side
	Type     message.OrdType
	Price    decimal.NullDecimal
	OrderQty decimal.Decimal
}

// Validate checks every field and returns all issues at once as *ValidationError.
// Price is ignored for market orders.
func (r Request) Validate() (Params, error) {
	var (
		params Params
		verr   ValidationError
	)

	if v, ok := text(r.ClOrdID); ok {
		params.ClOrdID = v
	} else {
		verr.add(FieldClOrdID, ProblemMissing, "")
	}

	if v, ok := text(r.Symbol); ok {
		params.Symbol = v
	} else {
		verr.add(FieldSymbol, ProblemMissing, "")
	}

	sideText, ok := text(r.Side)
	switch side := message.Side(sideText); {
	case !ok:
		verr.add(FieldSide, ProblemMissing, "")
	case !side.IsAvailable():
		verr.add(FieldSide, ProblemMalformed, sideText)
	default:
		params.Side = side
	}

	ordTypeText, ok := text(r.OrdType)
	switch ordType := message.OrdType(ordTypeText); {
	case !ok:
		verr.add(FieldOrdType, ProblemMissing, "")
	case !ordType.IsAvailable():
		verr.add(FieldOrdType, ProblemUnsupported, ordTypeText)
	default:
		params.Type = ordType
	}

	if qtyText, ok := text(r.OrderQty); ok {
		qty, ok := parsePositive(qtyText)
		if ok {
			params.OrderQty = qty
		} else {
			verr.add(FieldOrderQty, ProblemMalformed, qtyText+" is not a positive number")
		}
	} else {
		verr.add(FieldOrderQty, ProblemMissing, "")
	}

	if params.Type == message.OrdTypeLimit {
		if pxText, ok := text(r.Price); ok {
			px, ok := parsePositive(pxText)
			if ok {
				params.Price = decimal.NewNullDecimal(px)
			} else {
				verr.add(FieldPrice, ProblemMalformed, pxText+" is not a positive number")
			}
		} else {
			verr.add(FieldPrice, ProblemMissing, "")
		}
	}

	if err := verr.orNil(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// CancelRequest is an unvalidated cancel request.
type CancelRequest struct {
	ClOrdID     message.Field
	OrigClOrdID message.Field
}

// CancelRequestFromMessage reads the cancel fields of a message.
func CancelRequestFromMessage(msg message.Message) CancelRequest {
	return CancelRequest{
		ClOrdID:     msg.Field(message.TagClOrdID),
		OrigClOrdID: msg.Field(message.TagOrigClOrdID),
	}
}

// Validate checks the ids of a cancel request.
func (r CancelRequest) Validate() error {
	var verr ValidationError
	if _, ok := text(r.ClOrdID); !ok {
		verr.add(FieldClOrdID, ProblemMissing, "")
	}
	if _, ok := text(r.OrigClOrdID); !ok {
		verr.add(FieldOrigClOrdID, ProblemMissing, "")
	}
	return verr.orNil()
}

// text returns the trimmed value of f. Blank values count as missing.
func text(f message.Field) (string, bool) {
	if !f.Present {
		return "", false
	}
	v := strings.TrimSpace(f.Value)
	return v, v != ""
}

func parsePositive(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
