// Command ember is a minimal example of driving the matching engine as a
// library: list one market, submit a couple of orders, and print the
// resulting top of book. It is not a network service — wiring the engine
// up to a transport is left to the embedding program.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ember/internal/common"
	"ember/internal/engine"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dispatcher := engine.New(engine.WithWorkerCount(2))
	defer func() {
		if err := dispatcher.Shutdown(); err != nil {
			log.Error().Err(err).Msg("dispatcher shutdown failed")
		}
	}()

	if _, err := dispatcher.ListMarket("BTC-USD", 1, 200_000); err != nil {
		log.Fatal().Err(err).Msg("list market failed")
	}

	sellID, err := dispatcher.SubmitOrder(engine.SubmitOrderRequest{
		Symbol: "BTC-USD",
		Side:   common.Sell,
		Type:   common.Limit,
		Price:  50_000,
		Size:   10,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("submit order failed")
	}

	buyID, err := dispatcher.SubmitOrder(engine.SubmitOrderRequest{
		Symbol: "BTC-USD",
		Side:   common.Buy,
		Type:   common.Limit,
		Price:  50_000,
		Size:   4,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("submit order failed")
	}

	results, err := dispatcher.GetResults([]uint64{sellID, buyID})
	if err != nil {
		log.Fatal().Err(err).Msg("get results failed")
	}
	for _, outcome := range results {
		if !outcome.OK() {
			fmt.Println("request failed:", outcome.Err)
			continue
		}
		orderID, err := engine.DecodeOrderID(outcome.Payload)
		if err != nil {
			log.Fatal().Err(err).Msg("decode order id failed")
		}
		fmt.Println("order accepted, id:", orderID)
	}

	quote, err := dispatcher.GetBestQuote("BTC-USD")
	if err != nil {
		log.Fatal().Err(err).Msg("get best quote failed")
	}
	fmt.Printf("best bid: %d @ %d, best ask: %d @ %d\n",
		quote.BestBidPrice, quote.BestBidSize, quote.BestAskPrice, quote.BestAskSize)
}
