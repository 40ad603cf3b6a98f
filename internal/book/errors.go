package book

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrPriceBelowMin = errors.New("order price is below min for market")
	ErrPriceAboveMax = errors.New("order price is above max for market")
)
