package engine

import "errors"

var (
	ErrMarketNotFound    = errors.New("market not found")
	ErrMarketExists      = errors.New("market already exists")
	ErrOrderBookNotFound = errors.New("order book not found")
	ErrResultExpired     = errors.New("result expired")
)
