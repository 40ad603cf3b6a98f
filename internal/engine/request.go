package engine

import (
	"encoding/binary"
	"errors"

	"ember/internal/common"
)

// Kind tags what a request envelope carries and what an Outcome's payload
// encodes.
type Kind int

const (
	KindSubmitOrder Kind = iota
	KindCancelOrder
)

func (k Kind) String() string {
	switch k {
	case KindSubmitOrder:
		return "submit_order"
	case KindCancelOrder:
		return "cancel_order"
	default:
		return "unknown"
	}
}

// SubmitOrderRequest is the public shape callers build to submit an order.
type SubmitOrderRequest struct {
	Symbol string
	Side   common.Side
	Type   common.OrderType
	Price  uint64
	Size   uint64
}

// CancelOrderRequest is the public shape callers build to cancel an order.
type CancelOrderRequest struct {
	Symbol string
	ID     uint64
}

// envelope is the tagged-variant record dispatched over a worker's queue.
// It is decoded by the worker that owns the market's shard, never by the
// caller's goroutine.
type envelope struct {
	id      uint64
	kind    Kind
	submit  SubmitOrderRequest
	cancel  CancelOrderRequest
	traceID string
}

// Outcome is the result of one dispatched request: either a kind-tagged
// success payload, or an error string. Errors are carried as strings
// rather than the error value itself because a result can outlive the
// worker goroutine that produced it.
type Outcome struct {
	Kind    Kind
	Payload []byte
	Err     string
}

// OK reports whether the request succeeded.
func (o *Outcome) OK() bool {
	return o.Err == ""
}

var errMalformedPayload = errors.New("malformed outcome payload")

func encodeOrderID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// DecodeOrderID decodes the payload of a successful submit-order Outcome.
func DecodeOrderID(payload []byte) (uint64, error) {
	if len(payload) != 8 {
		return 0, errMalformedPayload
	}
	return binary.BigEndian.Uint64(payload), nil
}

func encodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBool decodes the payload of a successful cancel-order Outcome.
func DecodeBool(payload []byte) (bool, error) {
	if len(payload) != 1 {
		return false, errMalformedPayload
	}
	return payload[0] == 1, nil
}
