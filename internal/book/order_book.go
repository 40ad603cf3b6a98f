package book

import "ember/internal/common"

// BestQuote is the current top of book on both sides.
type BestQuote struct {
	BestBidPrice uint64
	BestBidSize  uint64
	BestAskPrice uint64
	BestAskSize  uint64
}

// OrderBook is a dense, pre-allocated array of PriceLevels spanning
// [market.MinPrice, market.MaxPrice), indexed by price-MinPrice. It is not
// safe for concurrent use: exactly one goroutine (the dispatcher's worker
// for this market's shard) may call into it at a time.
type OrderBook struct {
	market      common.Market
	lastOrderID uint64
	bestQuote   BestQuote
	priceByID   map[uint64]uint64
	levels      []PriceLevel

	trades []Trade
}

// NewOrderBook allocates a full price-level array for the market up front;
// no level is ever created or resized after construction.
func NewOrderBook(market common.Market) *OrderBook {
	total := market.MaxPrice - market.MinPrice
	levels := make([]PriceLevel, total)
	for i := range levels {
		levels[i] = newPriceLevel(market.MinPrice + uint64(i))
	}
	return &OrderBook{
		market: market,
		levels: levels,
		bestQuote: BestQuote{
			BestBidPrice: market.MinPrice,
			BestAskPrice: market.MaxPrice,
		},
		priceByID: make(map[uint64]uint64),
	}
}

// Market returns the market this book was constructed for.
func (b *OrderBook) Market() common.Market {
	return b.market
}

// BestQuote returns the current top of book.
func (b *OrderBook) BestQuote() BestQuote {
	return b.bestQuote
}

// LastTrades returns the trades produced by the most recent SubmitOrder
// call that passed price validation; a rejected call leaves it as it was.
// The slice is reused across calls; callers that need to keep it around
// should copy it.
func (b *OrderBook) LastTrades() []Trade {
	return b.trades
}

func (b *OrderBook) indexOf(price uint64) int {
	return int(price - b.market.MinPrice)
}

// sideLevels returns the sub-slice of levels currently spanned by one side
// of the book, in ascending price order: for bids from the bottom of the
// book up to the best bid, for asks from the best ask up to the top.
func (b *OrderBook) sideLevels(side common.Side) []PriceLevel {
	if side == common.Buy {
		to := int(b.bestQuote.BestBidPrice-b.market.MinPrice) + 1
		return b.levels[0:to]
	}
	from := int(b.bestQuote.BestAskPrice - b.market.MinPrice)
	return b.levels[from:]
}

// GetBids returns the occupied bid levels, best price first.
func (b *OrderBook) GetBids() []*PriceLevel {
	return b.sideOfBook(common.Buy)
}

// GetAsks returns the occupied ask levels, best price first.
func (b *OrderBook) GetAsks() []*PriceLevel {
	return b.sideOfBook(common.Sell)
}

func (b *OrderBook) sideOfBook(side common.Side) []*PriceLevel {
	levels := b.sideLevels(side)
	out := make([]*PriceLevel, 0, len(levels))
	for i := range levels {
		if levels[i].Size() > 0 {
			out = append(out, &levels[i])
		}
	}
	if side == common.Buy {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// GetOrders flattens both sides of the book into a single sequence, bids
// before asks, each ordered best-price first.
func (b *OrderBook) GetOrders() []Order {
	var out []Order
	for _, level := range b.GetBids() {
		for _, o := range level.Orders() {
			if o.Size == 0 {
				break
			}
			out = append(out, o)
		}
	}
	for _, level := range b.GetAsks() {
		for _, o := range level.Orders() {
			if o.Size == 0 {
				break
			}
			out = append(out, o)
		}
	}
	return out
}

func (b *OrderBook) updateBestBid() {
	levels := b.sideLevels(common.Buy)
	var price, size uint64
	for i := len(levels) - 1; i >= 0; i-- {
		if s := levels[i].Size(); s > 0 {
			price = levels[i].Price()
			size = s
			break
		}
	}
	if price > 0 {
		b.bestQuote.BestBidPrice = price
		b.bestQuote.BestBidSize = size
	} else {
		b.bestQuote.BestBidPrice = b.market.MinPrice
		b.bestQuote.BestBidSize = 0
	}
}

func (b *OrderBook) updateBestAsk() {
	levels := b.sideLevels(common.Sell)
	var price, size uint64
	for i := 0; i < len(levels); i++ {
		if s := levels[i].Size(); s > 0 {
			price = levels[i].Price()
			size = s
			break
		}
	}
	if price > 0 {
		b.bestQuote.BestAskPrice = price
		b.bestQuote.BestAskSize = size
	} else {
		b.bestQuote.BestAskPrice = b.market.MaxPrice
		b.bestQuote.BestAskSize = 0
	}
}

// SubmitOrder validates, assigns an id, and routes a new order through the
// crossing or passive path. It returns the assigned id.
func (b *OrderBook) SubmitOrder(side common.Side, typ common.OrderType, price, size uint64) (uint64, error) {
	if typ == common.Limit {
		if price < b.market.MinPrice {
			return 0, ErrPriceBelowMin
		}
		if price >= b.market.MaxPrice {
			return 0, ErrPriceAboveMax
		}
	}
	b.trades = b.trades[:0]
	b.lastOrderID++
	id := b.lastOrderID

	switch typ {
	case common.Limit:
		if (side == common.Buy && price >= b.bestQuote.BestAskPrice) ||
			(side == common.Sell && price <= b.bestQuote.BestBidPrice) {
			b.handleCrossing(id, side, typ, price, size)
		} else {
			b.handlePassive(id, side, typ, price, size)
		}
	case common.Market:
		price = 0
		b.handleCrossing(id, side, typ, price, size)
	}
	return id, nil
}

// handleCrossing walks the opposite side of the book from best to worst,
// matching the aggressive order against resting liquidity. Any leftover
// size on a limit order is placed passively; a market order's leftover is
// silently dropped.
func (b *OrderBook) handleCrossing(id uint64, side common.Side, typ common.OrderType, price, size uint64) {
	otherSide := common.Sell
	if side == common.Sell {
		otherSide = common.Buy
	}
	levels := b.sideLevels(otherSide)

	var bestBidPrice, bestAskPrice uint64
	for i := 0; i < len(levels) && size > 0; i++ {
		offset := i
		if side == common.Sell {
			offset = len(levels) - i - 1
		}
		level := &levels[offset]
		if level.Size() == 0 {
			continue
		}
		if typ == common.Limit {
			if side == common.Buy && level.Price() > price {
				break
			}
			if side == common.Sell && level.Price() < price {
				break
			}
		}

		var removeIDs []uint64
		orders := level.Orders()
		for i := range orders {
			passive := &orders[i]
			if passive.Price == 0 {
				break
			}
			if passive.Remaining >= size {
				passive.Remaining -= size
				b.trades = append(b.trades, Trade{Price: passive.Price, Quantity: size, AggressorOrderID: id, AggressorSide: side, PassiveOrderID: passive.ID})
				size = 0
			} else {
				size -= passive.Remaining
				b.trades = append(b.trades, Trade{Price: passive.Price, Quantity: passive.Remaining, AggressorOrderID: id, AggressorSide: side, PassiveOrderID: passive.ID})
				passive.Remaining = 0
			}
			switch side {
			case common.Buy:
				bestAskPrice = passive.Price
			case common.Sell:
				bestBidPrice = passive.Price
			}
			if passive.Remaining == 0 {
				removeIDs = append(removeIDs, passive.ID)
			}
			if size == 0 {
				break
			}
		}
		for _, rid := range removeIDs {
			level.RemoveOrder(rid)
			delete(b.priceByID, rid)
		}
	}

	// A market order that found nothing to match (its opposite side was
	// empty) leaves the book and its quote exactly as they were.
	if typ == common.Market && len(b.trades) == 0 {
		return
	}

	// A market order's leftover is silently dropped, never placed and
	// never used to update the quote: its price was forced to 0 and
	// treating that as a real level would either corrupt the best quote
	// or index outside the book.
	if size > 0 && typ == common.Limit {
		switch side {
		case common.Buy:
			bestBidPrice = price
			bestAskPrice = price + 1
		case common.Sell:
			bestAskPrice = price
			bestBidPrice = price - 1
		}
		b.handlePassive(id, side, typ, price, size)
	}

	if bestBidPrice > 0 {
		b.bestQuote.BestBidPrice = bestBidPrice
	}
	if bestAskPrice > 0 {
		b.bestQuote.BestAskPrice = bestAskPrice
	}
	b.updateBestBid()
	b.updateBestAsk()
}

// handlePassive rests an order at its own price level and re-seats the
// best quote on that side if needed. Recomputing the level's size on every
// add at the best price (not just on promotion to a new best) keeps the
// quoted size correct when several orders stack at the same best price.
func (b *OrderBook) handlePassive(id uint64, side common.Side, typ common.OrderType, price, size uint64) {
	level := &b.levels[b.indexOf(price)]
	level.AddOrder(price, size, side, typ, id)
	b.priceByID[id] = price
	levelSize := level.Size()

	switch side {
	case common.Buy:
		if b.bestQuote.BestBidSize == 0 {
			b.bestQuote.BestBidPrice = level.Price()
			b.bestQuote.BestBidSize = levelSize
		}
		if price > b.bestQuote.BestBidPrice {
			b.bestQuote.BestBidPrice = level.Price()
			b.bestQuote.BestBidSize = levelSize
		} else if price == b.bestQuote.BestBidPrice {
			b.bestQuote.BestBidSize = levelSize
		}
	case common.Sell:
		if b.bestQuote.BestAskSize == 0 {
			b.bestQuote.BestAskPrice = level.Price()
			b.bestQuote.BestAskSize = levelSize
		}
		if price < b.bestQuote.BestAskPrice {
			b.bestQuote.BestAskPrice = level.Price()
			b.bestQuote.BestAskSize = levelSize
		} else if price == b.bestQuote.BestAskPrice {
			b.bestQuote.BestAskSize = levelSize
		}
	}
}

// CancelOrder removes a resting order. If the order was at the best price
// on its side and its level is now empty, the best quote on that side is
// re-seated; cancelling one of several orders at the best price leaves the
// quoted size as it was.
func (b *OrderBook) CancelOrder(id uint64) error {
	price, ok := b.priceByID[id]
	if !ok {
		return ErrOrderNotFound
	}
	bestBid := b.bestQuote.BestBidPrice
	bestAsk := b.bestQuote.BestAskPrice

	level := &b.levels[b.indexOf(price)]
	level.RemoveOrder(id)
	delete(b.priceByID, id)

	if price == bestBid && level.Size() == 0 {
		b.updateBestBid()
	} else if price == bestAsk && level.Size() == 0 {
		b.updateBestAsk()
	}
	return nil
}
