package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/internal/common"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := New(WithWorkerCount(2), WithResultCapacity(64))
	t.Cleanup(func() {
		require.NoError(t, d.Shutdown())
	})
	return d
}

func TestDispatcher_ListMarketAndSubmitOrder(t *testing.T) {
	d := newTestDispatcher(t)

	market, err := d.ListMarket("BTCUSD", 1, 10_000)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSD", market.Symbol)

	reqID, err := d.SubmitOrder(SubmitOrderRequest{
		Symbol: "BTCUSD",
		Side:   common.Buy,
		Type:   common.Limit,
		Price:  100,
		Size:   5,
	})
	require.NoError(t, err)

	results, err := d.GetResults([]uint64{reqID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].OK())

	orderID, err := DecodeOrderID(results[0].Payload)
	require.NoError(t, err)
	assert.EqualValues(t, 1, orderID)

	quote, err := d.GetBestQuote("BTCUSD")
	require.NoError(t, err)
	assert.EqualValues(t, 100, quote.BestBidPrice)
	assert.EqualValues(t, 5, quote.BestBidSize)
}

func TestDispatcher_SubmitOrderUnknownMarket(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.SubmitOrder(SubmitOrderRequest{Symbol: "NOPE", Side: common.Buy, Type: common.Limit, Price: 1, Size: 1})
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestDispatcher_ListMarketTwiceFails(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.ListMarket("BTCUSD", 1, 10_000)
	require.NoError(t, err)
	_, err = d.ListMarket("BTCUSD", 1, 10_000)
	assert.ErrorIs(t, err, ErrMarketExists)
}

func TestDispatcher_CancelOrder(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.ListMarket("BTCUSD", 1, 10_000)
	require.NoError(t, err)

	submitReqID, err := d.SubmitOrder(SubmitOrderRequest{Symbol: "BTCUSD", Side: common.Buy, Type: common.Limit, Price: 100, Size: 5})
	require.NoError(t, err)
	results, err := d.GetResults([]uint64{submitReqID})
	require.NoError(t, err)
	orderID, err := DecodeOrderID(results[0].Payload)
	require.NoError(t, err)

	cancelReqID, err := d.CancelOrder(CancelOrderRequest{Symbol: "BTCUSD", ID: orderID})
	require.NoError(t, err)
	cancelResults, err := d.GetResults([]uint64{cancelReqID})
	require.NoError(t, err)
	require.True(t, cancelResults[0].OK())

	ok, err := DecodeBool(cancelResults[0].Payload)
	require.NoError(t, err)
	assert.True(t, ok)

	quote, err := d.GetBestQuote("BTCUSD")
	require.NoError(t, err)
	assert.EqualValues(t, 1, quote.BestBidPrice)
	assert.EqualValues(t, 0, quote.BestBidSize)
}

func TestDispatcher_ListMarketsSortedBySymbol(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.ListMarket("ETHUSD", 1, 10_000)
	require.NoError(t, err)
	_, err = d.ListMarket("BTCUSD", 1, 10_000)
	require.NoError(t, err)

	markets := d.ListMarkets()
	require.Len(t, markets, 2)
	assert.Equal(t, "BTCUSD", markets[0].Symbol)
	assert.Equal(t, "ETHUSD", markets[1].Symbol)
}

func TestDispatcher_GetOrdersBySymbol(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.ListMarket("BTCUSD", 1, 10_000)
	require.NoError(t, err)

	reqID, err := d.SubmitOrder(SubmitOrderRequest{Symbol: "BTCUSD", Side: common.Buy, Type: common.Limit, Price: 100, Size: 5})
	require.NoError(t, err)
	_, err = d.GetResults([]uint64{reqID})
	require.NoError(t, err)

	orders, err := d.GetOrdersBySymbol("BTCUSD")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.EqualValues(t, 5, orders[0].Remaining)
}
