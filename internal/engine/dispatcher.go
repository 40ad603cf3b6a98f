package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ember/internal/book"
	"ember/internal/common"
)

// DefaultResultSlotCapacity is the pre-allocated size of the result-slot
// ring if the caller doesn't override it with WithResultCapacity.
const DefaultResultSlotCapacity = 10_000_000

// Dispatcher shards requests by market symbol across one single-writer
// worker per CPU core, assigned round robin as markets are listed. Each
// worker owns every order book routed to it outright: nothing else ever
// touches those books, so the books themselves need no internal locking.
type Dispatcher struct {
	log   zerolog.Logger
	state *State
	tomb  *tomb.Tomb

	queues []*envelopeQueue

	channelMu       sync.RWMutex
	channelBySymbol map[string]int

	nextReqID atomic.Uint64
}

type dispatcherConfig struct {
	workerCount    int
	resultCapacity uint64
	logger         zerolog.Logger
}

// Option configures a Dispatcher at construction time. The core has no
// config file or flag parsing of its own; callers wire these in from
// whatever configuration layer their own program uses.
type Option func(*dispatcherConfig)

// WithWorkerCount overrides the number of shards/workers. Defaults to
// runtime.NumCPU().
func WithWorkerCount(n int) Option {
	return func(c *dispatcherConfig) { c.workerCount = n }
}

// WithResultCapacity overrides the size of the pre-allocated result-slot
// ring. Defaults to DefaultResultSlotCapacity.
func WithResultCapacity(n uint64) Option {
	return func(c *dispatcherConfig) { c.resultCapacity = n }
}

// WithLogger overrides the zerolog.Logger used for all dispatcher and
// worker logging. Defaults to the global zerolog/log logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *dispatcherConfig) { c.logger = l }
}

// New builds a Dispatcher and starts its worker pool. Workers run as
// goroutines under a tomb.Tomb so that Shutdown can wait for every one of
// them to exit. A worker never reports an error to the tomb, and a panic
// inside one is not recovered.
func New(opts ...Option) *Dispatcher {
	cfg := dispatcherConfig{
		workerCount:    runtime.NumCPU(),
		resultCapacity: DefaultResultSlotCapacity,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workerCount < 1 {
		cfg.workerCount = 1
	}

	d := &Dispatcher{
		log:             cfg.logger,
		state:           newState(cfg.resultCapacity),
		channelBySymbol: make(map[string]int),
	}
	t, _ := tomb.WithContext(context.Background())
	d.tomb = t

	d.queues = make([]*envelopeQueue, cfg.workerCount)
	for i := 0; i < cfg.workerCount; i++ {
		q := newEnvelopeQueue()
		d.queues[i] = q
		core := i
		t.Go(func() error {
			d.runWorker(core, q)
			return nil
		})
		d.log.Info().Int("worker", core).Msg("worker started")
	}
	return d
}

func (d *Dispatcher) runWorker(core int, q *envelopeQueue) {
	runtime.LockOSThread()
	if err := pinToCore(core); err != nil {
		d.log.Debug().Int("worker", core).Err(err).Msg("cpu affinity not available")
	}
	for {
		env, ok := q.pop()
		if !ok {
			d.log.Info().Int("worker", core).Msg("worker stopped")
			return
		}
		d.handle(env)
	}
}

// Shutdown stops every worker and blocks until they've drained their
// queues and exited.
func (d *Dispatcher) Shutdown() error {
	for _, q := range d.queues {
		q.close()
	}
	d.tomb.Kill(nil)
	return d.tomb.Wait()
}

func (d *Dispatcher) handle(env envelope) {
	var outcome *Outcome
	switch env.kind {
	case KindSubmitOrder:
		outcome = d.handleSubmitOrder(env)
	case KindCancelOrder:
		outcome = d.handleCancelOrder(env)
	}
	d.state.saveResult(env.id, outcome)
}

func (d *Dispatcher) handleSubmitOrder(env envelope) *Outcome {
	req := env.submit
	ob, err := d.state.getOrderBook(req.Symbol)
	if err != nil {
		d.log.Debug().Str("symbol", req.Symbol).Str("trace", env.traceID).Err(err).Msg("submit order failed")
		return &Outcome{Err: err.Error()}
	}
	id, err := ob.SubmitOrder(req.Side, req.Type, req.Price, req.Size)
	if err != nil {
		d.log.Debug().Str("symbol", req.Symbol).Str("trace", env.traceID).Err(err).Msg("submit order rejected")
		return &Outcome{Err: err.Error()}
	}
	for _, t := range ob.LastTrades() {
		d.log.Debug().
			Str("symbol", req.Symbol).
			Uint64("price", t.Price).
			Uint64("quantity", t.Quantity).
			Uint64("aggressorOrderID", t.AggressorOrderID).
			Uint64("passiveOrderID", t.PassiveOrderID).
			Str("trace", env.traceID).
			Msg("trade")
	}
	d.log.Debug().Str("symbol", req.Symbol).Uint64("orderID", id).Str("trace", env.traceID).Msg("order submitted")
	return &Outcome{Kind: KindSubmitOrder, Payload: encodeOrderID(id)}
}

func (d *Dispatcher) handleCancelOrder(env envelope) *Outcome {
	req := env.cancel
	ob, err := d.state.getOrderBook(req.Symbol)
	if err != nil {
		d.log.Debug().Str("symbol", req.Symbol).Str("trace", env.traceID).Err(err).Msg("cancel order failed")
		return &Outcome{Err: err.Error()}
	}
	if err := ob.CancelOrder(req.ID); err != nil {
		d.log.Debug().Str("symbol", req.Symbol).Uint64("orderID", req.ID).Str("trace", env.traceID).Err(err).Msg("cancel order rejected")
		return &Outcome{Err: err.Error()}
	}
	d.log.Debug().Str("symbol", req.Symbol).Uint64("orderID", req.ID).Str("trace", env.traceID).Msg("order cancelled")
	return &Outcome{Kind: KindCancelOrder, Payload: encodeBool(true)}
}

// ListMarket installs a new market and its order book, then assigns it to
// a worker shard round robin. Installing the market briefly pauses every
// worker (see State.barrier) since it's the one operation that grows the
// order-book map.
func (d *Dispatcher) ListMarket(symbol string, minPrice, maxPrice uint64) (common.Market, error) {
	market, err := d.state.listMarket(symbol, minPrice, maxPrice)
	if err != nil {
		d.log.Warn().Str("symbol", symbol).Err(err).Msg("list market failed")
		return common.Market{}, err
	}
	d.channelMu.Lock()
	channelID := len(d.channelBySymbol) % len(d.queues)
	d.channelBySymbol[symbol] = channelID
	d.channelMu.Unlock()
	d.log.Info().Str("symbol", symbol).Int("shard", channelID).Msg("market listed")
	return market, nil
}

// ListMarkets returns every listed market, sorted by symbol.
func (d *Dispatcher) ListMarkets() []common.Market {
	return d.state.listMarkets()
}

func (d *Dispatcher) getChannelID(symbol string) (int, error) {
	d.channelMu.RLock()
	defer d.channelMu.RUnlock()
	id, ok := d.channelBySymbol[symbol]
	if !ok {
		return 0, ErrMarketNotFound
	}
	return id, nil
}

// SubmitOrder assigns a request id, routes the request to its market's
// shard, and returns immediately; call GetResults with the returned id to
// retrieve the outcome.
func (d *Dispatcher) SubmitOrder(req SubmitOrderRequest) (uint64, error) {
	channelID, err := d.getChannelID(req.Symbol)
	if err != nil {
		d.log.Warn().Str("symbol", req.Symbol).Err(err).Msg("submit order dispatch failed")
		return 0, err
	}
	id := d.nextReqID.Add(1)
	trace := uuid.NewString()
	d.log.Debug().Uint64("requestID", id).Str("trace", trace).Str("symbol", req.Symbol).Msg("dispatching submit order")
	d.queues[channelID].push(envelope{id: id, kind: KindSubmitOrder, submit: req, traceID: trace})
	return id, nil
}

// CancelOrder assigns a request id and routes a cancellation to its
// market's shard; call GetResults with the returned id to retrieve the
// outcome.
func (d *Dispatcher) CancelOrder(req CancelOrderRequest) (uint64, error) {
	channelID, err := d.getChannelID(req.Symbol)
	if err != nil {
		d.log.Warn().Str("symbol", req.Symbol).Err(err).Msg("cancel order dispatch failed")
		return 0, err
	}
	id := d.nextReqID.Add(1)
	trace := uuid.NewString()
	d.log.Debug().Uint64("requestID", id).Str("trace", trace).Str("symbol", req.Symbol).Msg("dispatching cancel order")
	d.queues[channelID].push(envelope{id: id, kind: KindCancelOrder, cancel: req, traceID: trace})
	return id, nil
}

// GetResults blocks until every request id named has a recorded outcome,
// then returns them in the same order as requestIDs.
func (d *Dispatcher) GetResults(requestIDs []uint64) ([]*Outcome, error) {
	out := make([]*Outcome, 0, len(requestIDs))
	for _, id := range requestIDs {
		for {
			outcome, ok, err := d.state.getResult(id)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, outcome)
				break
			}
		}
	}
	return out, nil
}

// GetBestQuote returns the current top of book for symbol.
func (d *Dispatcher) GetBestQuote(symbol string) (book.BestQuote, error) {
	ob, err := d.state.getOrderBook(symbol)
	if err != nil {
		return book.BestQuote{}, err
	}
	return ob.BestQuote(), nil
}

// GetOrdersBySymbol returns every resting order for symbol, bids then
// asks, each ordered best-price first.
func (d *Dispatcher) GetOrdersBySymbol(symbol string) ([]book.Order, error) {
	ob, err := d.state.getOrderBook(symbol)
	if err != nil {
		return nil, err
	}
	return ob.GetOrders(), nil
}
