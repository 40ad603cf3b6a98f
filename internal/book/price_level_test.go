package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/internal/common"
)

func TestPriceLevel_AddOrder(t *testing.T) {
	level := newPriceLevel(100)
	level.AddOrder(100, 10, common.Buy, common.Limit, 1)
	level.AddOrder(100, 5, common.Buy, common.Limit, 2)

	require.Len(t, level.Orders(), 2)
	assert.EqualValues(t, 15, level.Size())
	assert.Equal(t, uint64(1), level.Orders()[0].ID)
	assert.Equal(t, uint64(2), level.Orders()[1].ID)
}

func TestPriceLevel_AddOrder_WrongPricePanics(t *testing.T) {
	level := newPriceLevel(100)
	assert.Panics(t, func() {
		level.AddOrder(101, 10, common.Buy, common.Limit, 1)
	})
}

func TestPriceLevel_AddOrder_CapacityPanics(t *testing.T) {
	level := newPriceLevel(100)
	for i := 0; i < MaxOrdersPerLevel; i++ {
		level.AddOrder(100, 1, common.Buy, common.Limit, uint64(i+1))
	}
	assert.Panics(t, func() {
		level.AddOrder(100, 1, common.Buy, common.Limit, 9999)
	})
}

func TestPriceLevel_RemoveOrder(t *testing.T) {
	level := newPriceLevel(100)
	level.AddOrder(100, 10, common.Buy, common.Limit, 1)
	level.AddOrder(100, 5, common.Buy, common.Limit, 2)
	level.AddOrder(100, 3, common.Buy, common.Limit, 3)

	level.RemoveOrder(2)

	require.Len(t, level.Orders(), 2)
	assert.Equal(t, uint64(1), level.Orders()[0].ID)
	assert.Equal(t, uint64(3), level.Orders()[1].ID)
	assert.EqualValues(t, 13, level.Size())
}

func TestPriceLevel_RemoveOrder_Miss(t *testing.T) {
	level := newPriceLevel(100)
	level.AddOrder(100, 10, common.Buy, common.Limit, 1)

	level.RemoveOrder(404)

	assert.Len(t, level.Orders(), 1)
	assert.EqualValues(t, 10, level.Size())
}

func TestPriceLevel_Size_StopsAtSentinel(t *testing.T) {
	level := newPriceLevel(100)
	level.AddOrder(100, 10, common.Buy, common.Limit, 1)
	level.RemoveOrder(1)

	assert.EqualValues(t, 0, level.Size())
	assert.Empty(t, level.Orders())
}
