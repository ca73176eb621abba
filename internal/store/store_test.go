package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/types"
)

func newTestStore() *TradeStore {
	return NewTradeStore(WithLatency(0, 0))
}

func entry(ticker string) types.TradeEntry {
	return types.TradeEntry{
		Ticker:       ticker,
		Direction:    types.DirectionBuy,
		Strategies:   []string{"Clinical Catalyst"},
		Funds:        []string{"BioTech Growth Fund"},
		CurrentPrice: decimal.RequireFromString("122.45"),
		TargetPrice:  decimal.RequireFromString("180.00"),
	}
}

func TestNewTradeStoreLoadsFixtures(t *testing.T) {
	s := newTestStore()

	trades := s.Trades()
	require.Len(t, trades, 5)
	for i, tr := range trades {
		assert.Equal(t, int64(i+1), tr.ID)
	}

	// Snapshots are defensive copies
	trades[0].Status = "mangled"
	trades[0].Funds[0] = "mangled"
	fresh := s.Trades()
	assert.Equal(t, types.StatusApproved, fresh[0].Status)
	assert.Equal(t, "BioTech Growth Fund", fresh[0].Funds[0])
}

func TestAddTradePrependsAndAssignsIDs(t *testing.T) {
	s := newTestStore()

	result, err := s.AddTrade(context.Background(), []types.TradeEntry{entry("MRNA")})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "Successfully submitted 1 trade(s) for approval.", result.Message)

	trades := s.Trades()
	require.Len(t, trades, 6)

	got := trades[0]
	assert.Equal(t, int64(6), got.ID)
	assert.Equal(t, int64(7), got.SecurityID)
	assert.Equal(t, types.StatusProposed, got.Status)
	assert.False(t, got.IsDraft)
	assert.Equal(t, "3 months", got.TimeHorizon)
	assert.Equal(t, "Buy recommendation for MRNA", got.Notes)
	assert.GreaterOrEqual(t, got.AnalystScore, 5)
	assert.LessOrEqual(t, got.AnalystScore, 9)
	require.NotNil(t, got.Security)
	assert.Equal(t, "MRNA", got.Security.Ticker)
	require.Len(t, got.Strategies, 1)
	assert.Equal(t, int64(8), got.Strategies[0].ID)
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), got.ExpectedExitDate, time.Minute)
}

func TestAddTradeHorizonFromExitDate(t *testing.T) {
	s := newTestStore()

	e := entry("GILD")
	e.ExpectedExit = time.Now().Add(60 * 24 * time.Hour)
	_, err := s.AddTrade(context.Background(), []types.TradeEntry{e})
	require.NoError(t, err)

	assert.Equal(t, "2 months", s.Trades()[0].TimeHorizon)
}

func TestAddTradeRejectsMissingTicker(t *testing.T) {
	s := newTestStore()

	_, err := s.AddTrade(context.Background(), []types.TradeEntry{{Direction: types.DirectionBuy}})
	require.ErrorIs(t, err, ErrMalformedEntry)
	assert.Len(t, s.Trades(), 5)
}

func TestAddTradeContextCancelled(t *testing.T) {
	s := NewTradeStore(WithLatency(50*time.Millisecond, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddTrade(ctx, []types.TradeEntry{entry("MRNA")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Trades(), 5)
}

func TestConcurrentSubmissionsGetUniqueIDs(t *testing.T) {
	s := NewTradeStore(WithLatency(20*time.Millisecond, 0))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddTrade(context.Background(), []types.TradeEntry{entry(fmt.Sprintf("TKR%d", i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	trades := s.Trades()
	require.Len(t, trades, 5+workers)
	seen := make(map[int64]bool)
	for _, tr := range trades {
		assert.False(t, seen[tr.ID], "duplicate id %d", tr.ID)
		seen[tr.ID] = true
	}
}

func TestAddDraft(t *testing.T) {
	s := newTestStore()

	result, err := s.AddDraft(context.Background(), entry("BIIB"))
	require.NoError(t, err)
	assert.Equal(t, "Trade saved as draft successfully.", result.Message)

	got := s.Trades()[0]
	assert.Equal(t, types.StatusDraft, got.Status)
	assert.True(t, got.IsDraft)
}

func TestSubscribeNotifiesInOrderWithOwnCopies(t *testing.T) {
	s := newTestStore()

	var order []string
	var firstSnapshot []types.Recommendation
	s.Subscribe(func(trades []types.Recommendation) {
		order = append(order, "first")
		firstSnapshot = trades
	})
	s.Subscribe(func(trades []types.Recommendation) {
		order = append(order, "second")
		// Mangling one listener's copy must not leak into another's
		if len(trades) > 0 {
			trades[0].Status = "mangled"
		}
	})

	_, err := s.AddDraft(context.Background(), entry("MRNA"))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, firstSnapshot, 6)
	assert.Equal(t, types.StatusDraft, firstSnapshot[0].Status)
	assert.Equal(t, types.StatusDraft, s.Trades()[0].Status)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := newTestStore()

	calls := 0
	unsubscribe := s.Subscribe(func([]types.Recommendation) { calls++ })

	s.UpdateTradeStatus(3, types.StatusApproved)
	require.Equal(t, 1, calls)

	unsubscribe()
	s.UpdateTradeStatus(3, types.StatusRejected)
	assert.Equal(t, 1, calls)
}

func TestUpdateTradeStatus(t *testing.T) {
	s := newTestStore()

	notified := 0
	s.Subscribe(func([]types.Recommendation) { notified++ })

	s.UpdateTradeStatus(3, types.StatusApproved)
	assert.Equal(t, 1, notified)
	for _, tr := range s.Trades() {
		if tr.ID == 3 {
			assert.Equal(t, types.StatusApproved, tr.Status)
		}
	}

	// Unknown ids are a silent no-op with no notification
	s.UpdateTradeStatus(99, types.StatusApproved)
	assert.Equal(t, 1, notified)
	assert.Len(t, s.Trades(), 5)
}

func TestDeleteDraft(t *testing.T) {
	s := newTestStore()

	notified := 0
	s.Subscribe(func([]types.Recommendation) { notified++ })

	assert.True(t, s.DeleteDraft(2))
	assert.Equal(t, 1, notified)
	assert.Len(t, s.Trades(), 4)

	assert.False(t, s.DeleteDraft(2))
	assert.Equal(t, 1, notified)
}

func TestClearTradesKeepsCounter(t *testing.T) {
	s := newTestStore()

	s.ClearTrades()
	require.Empty(t, s.Trades())

	_, err := s.AddTrade(context.Background(), []types.TradeEntry{entry("VRTX")})
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.Trades()[0].ID)
}

func TestResetToMockDataResumesIDSequence(t *testing.T) {
	s := newTestStore()

	_, err := s.AddTrade(context.Background(), []types.TradeEntry{entry("MRNA")})
	require.NoError(t, err)
	require.Len(t, s.Trades(), 6)

	s.ResetToMockData()
	require.Len(t, s.Trades(), 5)

	_, err = s.AddTrade(context.Background(), []types.TradeEntry{entry("MRNA")})
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.Trades()[0].ID)
}

func TestPendingFiltersProposed(t *testing.T) {
	s := newTestStore()

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, int64(3), pending[0].ID)
}
