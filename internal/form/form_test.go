package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/store"
	"github.com/biocap/tradedesk-api/internal/types"
)

func newTestController() (*Controller, *store.TradeStore) {
	st := store.NewTradeStore(store.WithLatency(0, 0))
	return NewController(st, NewSessionState()), st
}

func completeRow(ticker string) Row {
	return Row{
		Ticker:       ticker,
		Direction:    types.DirectionBuy,
		Strategies:   []string{"Clinical Catalyst"},
		Funds:        []string{"BioTech Growth Fund"},
		CurrentPrice: "122.45",
		TargetPrice:  "180.00",
	}
}

func TestNewControllerStartsWithOneEmptyRow(t *testing.T) {
	c, _ := newTestController()

	rows := c.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, types.DirectionBuy, rows[0].Direction)
	assert.Empty(t, rows[0].Ticker)
}

func TestNewControllerRestoresSessionRows(t *testing.T) {
	st := store.NewTradeStore(store.WithLatency(0, 0))
	state := NewSessionState()

	first := NewController(st, state)
	first.SetRow(0, completeRow("MRNA"))
	first.AddRow()

	second := NewController(st, state)
	rows := second.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "MRNA", rows[0].Ticker)
}

func TestAddAndRemoveRows(t *testing.T) {
	c, _ := newTestController()

	c.AddRow()
	c.AddRow()
	require.Len(t, c.Rows(), 3)

	c.RemoveRow(1)
	require.Len(t, c.Rows(), 2)

	// The last remaining row can never be removed
	c.RemoveRow(0)
	c.RemoveRow(0)
	assert.Len(t, c.Rows(), 1)
}

func TestValidTradesFiltersIncompleteRows(t *testing.T) {
	c, _ := newTestController()

	c.SetRow(0, completeRow("MRNA"))
	c.AddRow()
	// Missing funds
	c.SetRow(1, Row{
		Ticker:       "GILD",
		Direction:    types.DirectionSell,
		Strategies:   []string{"Value"},
		CurrentPrice: "68.12",
		TargetPrice:  "85.00",
	})
	c.AddRow()
	// Unparseable price
	bad := completeRow("BIIB")
	bad.TargetPrice = "not a number"
	c.SetRow(2, bad)
	c.AddRow()
	// Non-positive price
	zero := completeRow("VRTX")
	zero.CurrentPrice = "0"
	c.SetRow(3, zero)

	valid := c.ValidTrades()
	require.Len(t, valid, 1)
	assert.Equal(t, "MRNA", valid[0].Ticker)
	assert.Equal(t, "122.45", valid[0].CurrentPrice.String())
}

func TestValidTradesAcceptsNumericStrings(t *testing.T) {
	c, _ := newTestController()

	row := completeRow("MRNA")
	row.CurrentPrice = " 122.45 "
	c.SetRow(0, row)

	require.Len(t, c.ValidTrades(), 1)
}

func TestSaveDraftFlagsRowAndAppendsEmptyOne(t *testing.T) {
	c, _ := newTestController()

	c.SetRow(0, completeRow("MRNA"))
	result := c.SaveDraft(0)
	require.True(t, result.Success)
	assert.Equal(t, "Draft saved successfully", result.Message)

	rows := c.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsDraft)
	assert.Empty(t, rows[1].Ticker)
}

func TestSaveDraftOutOfRange(t *testing.T) {
	c, _ := newTestController()

	result := c.SaveDraft(5)
	assert.False(t, result.Success)
	assert.Len(t, c.Rows(), 1)
}

func TestSubmitTradesResetsFormOnSuccess(t *testing.T) {
	c, st := newTestController()

	c.SetRow(0, completeRow("MRNA"))
	c.AddRow()
	c.SetRow(1, completeRow("GILD"))

	result, err := c.SubmitTrades(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "Successfully submitted 2 trade(s) for approval.", result.Message)

	rows := c.Rows()
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Ticker)

	assert.Len(t, st.Trades(), 7)
}

func TestSubmitTradesRequiresAtLeastOneValidRow(t *testing.T) {
	c, st := newTestController()

	result, err := c.SubmitTrades(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Len(t, st.Trades(), 5)
}
