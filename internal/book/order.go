package book

import "ember/internal/common"

// Order is a resting or just-matched order slot inside a PriceLevel. The
// zero value (Price == 0) is the empty/end-of-active-prefix sentinel used
// throughout the book to know where an occupied run of slots ends.
type Order struct {
	ID        uint64
	Price     uint64
	Size      uint64
	Remaining uint64
	Side      common.Side
	Status    common.OrderStatus
	Type      common.OrderType
}
