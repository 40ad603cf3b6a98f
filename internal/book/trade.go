package book

import "ember/internal/common"

// Trade records one match made while handling a single SubmitOrder call.
// It exists purely for observability: the book keeps no trade history and
// nothing downstream of the dispatcher persists it.
type Trade struct {
	Price            uint64
	Quantity         uint64
	AggressorOrderID uint64
	AggressorSide    common.Side
	PassiveOrderID   uint64
}
