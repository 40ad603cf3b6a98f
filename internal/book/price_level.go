package book

import (
	"fmt"

	"ember/internal/common"
)

// MaxOrdersPerLevel bounds how many resting orders a single price can hold.
// The array is sized once at construction and never reallocated.
const MaxOrdersPerLevel = 200

// PriceLevel is a bounded FIFO of orders resting at one price. cursor marks
// the length of the occupied prefix; slots at and beyond cursor are zero
// valued.
type PriceLevel struct {
	price  uint64
	orders [MaxOrdersPerLevel]Order
	cursor int
}

func newPriceLevel(price uint64) PriceLevel {
	return PriceLevel{price: price}
}

// Price returns the fixed price this level was created for.
func (l *PriceLevel) Price() uint64 {
	return l.price
}

// Orders returns the occupied prefix of resting orders, oldest first.
func (l *PriceLevel) Orders() []Order {
	return l.orders[:l.cursor]
}

// Size sums remaining size across the level. It walks the full backing
// array and stops at the first zero-price sentinel, mirroring the source
// it's ported from rather than just summing the occupied prefix.
func (l *PriceLevel) Size() uint64 {
	var total uint64
	for i := range l.orders {
		if l.orders[i].Price == 0 {
			break
		}
		total += l.orders[i].Remaining
	}
	return total
}

// AddOrder appends a new resting order to the level. It panics if price
// doesn't match the level's own price, or if the level is already at
// capacity — both are programmer errors, never a condition a caller should
// need to recover from.
func (l *PriceLevel) AddOrder(price, size uint64, side common.Side, typ common.OrderType, id uint64) {
	if price != l.price {
		panic(fmt.Sprintf("order price %d does not match level price %d", price, l.price))
	}
	if l.cursor == MaxOrdersPerLevel {
		panic("max orders at price level reached")
	}
	o := &l.orders[l.cursor]
	o.Price = price
	o.Remaining = size
	o.Side = side
	o.Size = size
	o.Status = common.Open
	o.Type = typ
	o.ID = id
	l.cursor++
}

// RemoveOrder zeroes the matching slot and shifts the remainder of the
// occupied prefix left by one. A miss is a silent no-op.
func (l *PriceLevel) RemoveOrder(id uint64) {
	for i := 0; i < l.cursor; i++ {
		if l.orders[i].ID != id {
			continue
		}
		copy(l.orders[i:l.cursor-1], l.orders[i+1:l.cursor])
		l.orders[l.cursor-1] = Order{}
		l.cursor--
		return
	}
}
