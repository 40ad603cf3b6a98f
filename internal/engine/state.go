package engine

import (
	"sync"
	"sync/atomic"

	"github.com/tidwall/btree"

	"ember/internal/book"
	"ember/internal/common"
)

// slotValue is what a result slot holds: the generation it was written
// under, and the outcome itself. Storing both behind one atomic pointer
// makes the write visible to readers as a single, indivisible swap.
type slotValue struct {
	generation uint64
	outcome    *Outcome
}

// State is the process-wide registry of listed markets, their order books,
// and in-flight request results. barrier is the pause barrier: listing a
// market takes it for write, which blocks every worker mid-dispatch until
// the new market (and its order book) is fully installed; everything else
// only needs a read lock to safely look the map up.
type State struct {
	barrier sync.RWMutex

	markets     map[string]common.Market
	orderBooks  map[string]*book.OrderBook
	symbolIndex *btree.BTreeG[string]

	resultSlots []atomic.Pointer[slotValue]
	resultCap   uint64
}

func newState(resultCapacity uint64) *State {
	return &State{
		markets:     make(map[string]common.Market),
		orderBooks:  make(map[string]*book.OrderBook),
		symbolIndex: btree.NewBTreeG(func(a, b string) bool { return a < b }),
		resultSlots: make([]atomic.Pointer[slotValue], resultCapacity),
		resultCap:   resultCapacity,
	}
}

func (s *State) getOrderBook(symbol string) (*book.OrderBook, error) {
	s.barrier.RLock()
	defer s.barrier.RUnlock()
	ob, ok := s.orderBooks[symbol]
	if !ok {
		return nil, ErrOrderBookNotFound
	}
	return ob, nil
}

func (s *State) listMarket(symbol string, minPrice, maxPrice uint64) (common.Market, error) {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if _, exists := s.markets[symbol]; exists {
		return common.Market{}, ErrMarketExists
	}
	market, err := common.NewMarket(symbol, minPrice, maxPrice)
	if err != nil {
		return common.Market{}, err
	}
	s.markets[symbol] = market
	s.orderBooks[symbol] = book.NewOrderBook(market)
	s.symbolIndex.Set(symbol)
	return market, nil
}

// listMarkets returns every listed market, sorted by symbol. This is a
// cold, diagnostic-path read, so the ordered index costs nothing where the
// hot submit/cancel path is concerned.
func (s *State) listMarkets() []common.Market {
	s.barrier.RLock()
	defer s.barrier.RUnlock()
	out := make([]common.Market, 0, s.symbolIndex.Len())
	s.symbolIndex.Scan(func(symbol string) bool {
		out = append(out, s.markets[symbol])
		return true
	})
	return out
}

// saveResult publishes the outcome of request id into its slot. index is
// id modulo the slot capacity, generation is id divided by it; a later
// request reusing the same slot simply bumps the generation.
func (s *State) saveResult(id uint64, outcome *Outcome) {
	idx := id % s.resultCap
	gen := id / s.resultCap
	s.resultSlots[idx].Store(&slotValue{generation: gen, outcome: outcome})
}

// getResult reports the outcome for request id if it has landed. If the
// slot has already been recycled for a newer generation than id belongs
// to, it returns ErrResultExpired instead of a stale or mismatched result.
func (s *State) getResult(id uint64) (*Outcome, bool, error) {
	idx := id % s.resultCap
	gen := id / s.resultCap
	v := s.resultSlots[idx].Load()
	if v == nil {
		return nil, false, nil
	}
	if v.generation > gen {
		return nil, false, ErrResultExpired
	}
	if v.generation < gen {
		return nil, false, nil
	}
	return v.outcome, true, nil
}
